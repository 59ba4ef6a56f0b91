package config

// NetworkInput 指定静态路网描述来源的配置
// 功能：定义路网文件路径与走廊提取参数
// 说明：路网为SUMO风格的.net.xml（可gzip压缩），仅在启动时读取一次
type NetworkInput struct {
	File     string   `yaml:"file"`                 // 路网文件路径
	MaxDepth int      `yaml:"max_depth,omitempty"`  // 走廊上溯深度（按街道变化计数），默认2
	StopAtTL bool     `yaml:"stop_at_tl,omitempty"` // 上溯时是否在其他信号灯处截断
	TLs      []string `yaml:"tls,omitempty"`        // 受控信号灯ID列表，为空则控制路网中全部信号灯
}

// FunctionDef 模糊语言变量定义
// 说明：在[lmin, lmax]论域上按levels等距生成隶属度函数
type FunctionDef struct {
	Min    float64  `yaml:"lmin"`   // 论域下界
	Max    float64  `yaml:"lmax"`   // 论域上界
	Levels []string `yaml:"levels"` // 语言标签（有序）
}

// RuleDef 单条模糊规则：IF vehicles AND arrival THEN green
type RuleDef struct {
	Vehicles string  `yaml:"vehicles"`         // 排队变量标签
	Arrival  string  `yaml:"arrival"`          // 到达率变量标签
	Green    string  `yaml:"green"`            // 绿灯时长输出标签
	Weight   float64 `yaml:"weight,omitempty"` // 蕴含权重，缺省为1
}

// Fuzzy 模糊控制器知识库配置
type Fuzzy struct {
	Functions    map[string]FunctionDef `yaml:"functions"`               // 变量名->变量定义，需包含vehicles/arrival/green
	Rules        []RuleDef              `yaml:"rules"`                   // 规则库
	DefaultGreen float64                `yaml:"default_green,omitempty"` // 无规则触发时的缺省绿灯时长，缺省取green.lmin
}

// GapOut 间隙切断配置
type GapOut struct {
	MinGreen   float64 `yaml:"min_green"`   // 最小绿灯时间（秒），此前绝不切断
	GapTimeout float64 `yaml:"gap_timeout"` // 连续空闲多久后切断（秒）
}

// MongoOutput 决策记录的MongoDB输出配置
type MongoOutput struct {
	URI string `yaml:"uri"` // MongoDB连接字符串
	DB  string `yaml:"db"`  // 数据库名
	Col string `yaml:"col"` // 集合名
}

// Output 决策记录输出配置，各项均可为空（不输出）
type Output struct {
	CSVDir string       `yaml:"csv_dir,omitempty"` // CSV输出目录
	Mongo  *MongoOutput `yaml:"mongo,omitempty"`   // MongoDB输出
}

// ControlStep 指定模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Engine 合成轨迹引擎配置（离线运行时替代真实仿真引擎）
type Engine struct {
	Seed    uint64             `yaml:"seed,omitempty"`     // 随机种子
	P       float64            `yaml:"p,omitempty"`        // 每车道每步到达概率，缺省0.1
	LaneP   map[string]float64 `yaml:"lane_p,omitempty"`   // 按车道覆盖的到达概率
	Persist float64            `yaml:"persist,omitempty"`  // 车辆平均驻留步数，缺省5
}

// Config YAML配置文件的根结构
type Config struct {
	Control Control      `yaml:"control"` // 模拟过程控制
	Network NetworkInput `yaml:"network"` // 路网输入
	Fuzzy   Fuzzy        `yaml:"fuzzy"`   // 模糊知识库
	GapOut  GapOut       `yaml:"gapout"`  // 间隙切断
	Output  Output       `yaml:"output,omitempty"`
	Engine  Engine       `yaml:"engine,omitempty"`
}
