package corridor

import (
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
)

// Reduce 把单步车道观测归约为进口道交通状态
// 功能：对走廊内全部车道的观测求和，得到(排队数, 到达率)
// 参数：topo-走廊拓扑，snapshots-车道ID->单步观测，dt-步长（秒）
// 返回：聚合后的交通状态
// 算法说明：
// 1. 排队数取走廊内各车道车辆数之和（与原始数据口径一致，不取最大值）
// 2. 到达率取走廊内新到达数之和除以步长，单位veh/s
// 3. 观测中缺失的车道按零处理并告警，决策过程不中断
// 说明：纯函数，结果与snapshots的遍历顺序无关
func Reduce(topo *ApproachTopology, snapshots map[string]entity.DetectorSnapshot, dt float64) entity.TrafficState {
	var queue, arrivals int32
	for _, lane := range topo.Lanes {
		snap, ok := snapshots[lane]
		if !ok {
			// 车道从路网中消失等运行期不一致，可恢复
			log.Warnf("approach %s: lane %s missing from snapshot, treated as empty", topo.ID, lane)
			continue
		}
		queue += snap.Count
		arrivals += snap.Arrivals
	}
	state := entity.TrafficState{QueueLength: queue}
	if dt > 0 {
		state.ArrivalRate = float64(arrivals) / dt
	}
	return state
}
