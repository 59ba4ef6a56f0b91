package approach

// PhaseTimer 进口道相位计时器
// 功能：保存一个进口道在当前相位内的可变计时状态
// 说明：由所属Approach独占持有并每步更新一次，任何相位切换
// （本控制器发起或引擎侧强制）都会将其重置
type PhaseTimer struct {
	CurrentPhase  int     // 引擎当前相位下标
	ElapsedGreen  float64 // 本相位已持续的绿灯时间（秒）
	EmptyDuration float64 // 连续空闲时间（秒），任何非空观测都会清零
	Target        float64 // 上次推理得到的绿灯时长（秒），0表示尚未推理
}

// Reset 相位切换时重置计时器
// 参数：phase-新的当前相位下标
func (t *PhaseTimer) Reset(phase int) {
	*t = PhaseTimer{CurrentPhase: phase}
}
