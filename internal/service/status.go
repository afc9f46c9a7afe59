package service

import (
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/schedule"
)

// ── 状态计算 ────────────────────────────────────────────────
//
// 职责：由打卡时刻（或无打卡）与节次时间窗推出展示状态。
// 纯函数，无副作用；记录上已有显式状态时一律以显式状态为准，
// 这里只做缺省兜底。
//
// 两套算法由调用方按日期选择：
//   - 当日（live）：节次未结束前不下"缺勤"结论
//   - 历史（final）：无打卡即缺勤，不再留余地
// ─────────────────────────────────────────────────────────────

// ComputeStatusLive 当日算法
//
// markMin 为打卡时刻的当日分钟数，-1 表示无打卡；
// nowMin 为当前时刻的当日分钟数。
//
// 节次结束后的打卡仍记"迟到"而非"缺勤"：补交/网络延迟的打卡
// 不按缺勤惩罚，这是刻意保留的宽松口径。
func ComputeStatusLive(markMin int, p schedule.Period, nowMin, graceMin int) string {
	if markMin < 0 {
		if nowMin <= p.EndMin {
			// 节次未开始或进行中，尚可打卡
			return model.StatusUnset
		}
		return model.StatusAbsent
	}
	return statusForMark(markMin, p, graceMin)
}

// ComputeStatusFinal 历史日期算法：无打卡即缺勤
func ComputeStatusFinal(markMin int, p schedule.Period, graceMin int) string {
	if markMin < 0 {
		return model.StatusAbsent
	}
	return statusForMark(markMin, p, graceMin)
}

// statusForMark 有打卡时刻时的公共阈值判定
// 节次结束后的打卡一律迟到，宽限再大也不翻成出勤
func statusForMark(markMin int, p schedule.Period, graceMin int) string {
	if markMin > p.EndMin {
		return model.StatusLate
	}
	if markMin <= p.StartMin+graceMin {
		return model.StatusPresent
	}
	return model.StatusLate
}

// markMinutes 将可空的 "HH:MM" 打卡时刻换算为分钟数，无打卡返回 -1
func markMinutes(mark *string) int {
	if mark == nil || *mark == "" {
		return -1
	}
	min, err := schedule.ToMinutes(*mark)
	if err != nil {
		return -1
	}
	return min
}
