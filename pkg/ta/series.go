package ta

import "github.com/markcheno/go-talib"

// 均线覆盖层计算，go-talib 在数据量不足一个周期时返回前导0，
// 这里统一转换为 nil 值以便前端按 null 断线

// SMA 简单移动平均，长度不足周期的位置为nil
func SMA(values []float64, period int) []*float64 {
	if len(values) < period {
		return make([]*float64, len(values))
	}
	return maskWarmup(talib.Sma(values, period), period)
}

// EMA 指数移动平均，长度不足周期的位置为nil
func EMA(values []float64, period int) []*float64 {
	if len(values) < period {
		return make([]*float64, len(values))
	}
	return maskWarmup(talib.Ema(values, period), period)
}

// maskWarmup 把预热段的0替换为nil
func maskWarmup(raw []float64, period int) []*float64 {
	out := make([]*float64, len(raw))
	for i := period - 1; i < len(raw); i++ {
		v := raw[i]
		out[i] = &v
	}
	return out
}
