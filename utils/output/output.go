// Package output 决策记录输出
// 功能：把控制核心每步产生的决策记录写入CSV文件与MongoDB，
// 供离线分析（排队曲线、切断频次、时长分布等）使用
package output

import (
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

var log = logrus.WithField("module", "output")

// multiRecorder 组合多个输出端，按序写入
type multiRecorder struct {
	recorders []entity.IRecorder
}

func (m *multiRecorder) Record(rec *entity.DecisionRecord) {
	for _, r := range m.recorders {
		r.Record(rec)
	}
}

func (m *multiRecorder) Close() error {
	var err error
	for _, r := range m.recorders {
		if e := r.Close(); e != nil {
			err = e
		}
	}
	return err
}

// nopRecorder 无输出配置时的空实现
type nopRecorder struct{}

func (nopRecorder) Record(*entity.DecisionRecord) {}

func (nopRecorder) Close() error { return nil }

// New 根据输出配置构建决策记录输出端
// 功能：按配置组装CSV与MongoDB输出；两者都未配置时返回空实现
// 参数：cfg-输出配置，job-任务名（用作文件名与集合内的任务标识）
// 返回：记录输出端；任一端初始化失败时返回错误（启动期致命）
// 说明：Record按步串行调用，各实现不做并发保护
func New(cfg config.Output, job string) (entity.IRecorder, error) {
	recorders := make([]entity.IRecorder, 0, 2)
	if cfg.CSVDir != "" {
		r, err := newCSVRecorder(cfg.CSVDir, job)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, r)
	}
	if cfg.Mongo != nil {
		r, err := newMongoRecorder(*cfg.Mongo, job)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, r)
	}
	switch len(recorders) {
	case 0:
		log.Warn("no output configured, decisions will be discarded")
		return nopRecorder{}, nil
	case 1:
		return recorders[0], nil
	default:
		return &multiRecorder{recorders: recorders}, nil
	}
}
