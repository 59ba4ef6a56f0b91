// Package task 任务编排
// 功能：装配控制核心的全部组件并驱动主循环
package task

import (
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/clock"
	"github.com/tsinghua-fib-lab/fuzzylts/engine/trace"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/approach"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/network"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/fuzzy"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/output"
)

var log = logrus.WithField("module", "task")

// 心跳日志间隔（步）
const heartbeatSteps = 600

// ISimEngine 可步进的外部仿真引擎
// 说明：控制核心只依赖entity.IEngine；步进能力仅主循环需要
type ISimEngine interface {
	entity.IEngine
	Step(dt float64)
}

// Context 任务上下文
// 功能：持有一次控制任务的全部组件，实现entity.ITaskContext
// 说明：启动期错误（配置、路网、知识库）在NewContext中返回，
// 进入主循环后不再产生致命错误
type Context struct {
	job string

	clock         *clock.Clock
	runtimeConfig *config.RuntimeConfig
	network       *network.Network
	fuzzyEngine   *fuzzy.Engine
	manager       *approach.Manager
	engine        ISimEngine
	recorder      entity.IRecorder
}

// NewContext 创建任务上下文
// 功能：校验配置、加载路网、构建知识库与进口道并装配输出
// 参数：job-任务名，cfg-原始配置
// 返回：就绪的任务上下文；任何组件初始化失败即返回错误（启动期致命）
func NewContext(job string, cfg config.Config) (*Context, error) {
	runtimeConfig, err := config.NewRuntimeConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = runtimeConfig.All

	net, err := network.Load(cfg.Network.File)
	if err != nil {
		return nil, err
	}
	log.Infof("network loaded: %d traffic lights", len(net.TLs()))

	fuzzyEngine, err := fuzzy.FromConfig(cfg.Fuzzy)
	if err != nil {
		return nil, err
	}

	recorder, err := output.New(cfg.Output, job)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		job:           job,
		clock:         clock.New(cfg.Control.Step),
		runtimeConfig: runtimeConfig,
		network:       net,
		fuzzyEngine:   fuzzyEngine,
		recorder:      recorder,
	}
	ctx.engine = trace.New(net, cfg.Engine, cfg.Network.TLs)
	ctx.manager = approach.NewManager(ctx, recorder)
	if err := ctx.manager.Init(net, fuzzyEngine); err != nil {
		recorder.Close()
		return nil, err
	}
	log.Infof("job %s: %d approaches under control", job, len(ctx.manager.Approaches()))
	return ctx, nil
}

// Clock 获取仿真时钟
func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// RuntimeConfig 获取运行时配置
func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Network 获取静态路网
func (ctx *Context) Network() *network.Network {
	return ctx.network
}

// Manager 获取进口道管理器
func (ctx *Context) Manager() *approach.Manager {
	return ctx.manager
}

// Run 运行控制主循环直至结束步
// 算法说明：
// 1. 引擎推进一个仿真步
// 2. 全部进口道并行完成观测->归约->间隙切断->推理的决策流程
// 3. 时钟推进
// 说明：循环结束后关闭输出端，保证缓冲记录落盘
func (ctx *Context) Run() error {
	c := ctx.clock
	log.Infof("start at step %d, end at step %d, dt=%.1fs", c.START_STEP, c.END_STEP, c.DT)
	for c.Step < c.END_STEP {
		if (c.Step-c.START_STEP)%heartbeatSteps == 0 {
			log.Infof("step %d (%v)", c.Step, c)
		}
		ctx.engine.Step(c.DT)
		ctx.manager.Update(ctx.engine)
		c.Tick()
	}
	log.Infof("finished at step %d (%v)", c.Step, c)
	return ctx.recorder.Close()
}
