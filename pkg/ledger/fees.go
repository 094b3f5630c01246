package ledger

// 历史版本的手续费字段名，按出现年代排列，取第一个存在的字段
var feeAliases = []string{
	"commissions",
	"commission",
	"fees",
	"fee",
	"totalFees",
	"total_fees",
	"commissionsAndFees",
}

// ExtractFees 从会话或成交级别的原始记录中提取净手续费
// 任何别名都不存在时返回0
func ExtractFees(raw map[string]any) float64 {
	if raw == nil {
		return 0
	}
	for _, key := range feeAliases {
		if v, ok := raw[key]; ok && v != nil {
			return ToFloat(v)
		}
	}
	return 0
}
