package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

// Clock 仿真时钟
// 功能：管理决策核心的离散时间推进，节奏与外部引擎的步进保持一致
// 说明：维护当前仿真时间与步数，所有组件通过该时钟获取统一的步长DT
type Clock struct {
	DT         float64 // 每个模拟步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，模拟区间[START, END)

	T    float64 // 当前时间（秒）
	Step int32   // 当前步数
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，包含起始步、总步数与时间间隔
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 初始化时钟状态
// 功能：重置步数为起始步，重新计算当前时间
func (c *Clock) Init() {
	c.Step = c.START_STEP
	c.T = float64(c.Step) * c.DT
}

// Tick 推进一步
// 功能：步数加一并同步更新当前时间
func (c *Clock) Tick() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// String 获取时钟的字符串表示（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
