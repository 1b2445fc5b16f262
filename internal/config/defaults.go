package config

// Default configuration values.
const (
	DefaultMarker       = "1#sqlValue"
	DefaultOutputSuffix = "_明细双输出"
	DefaultStateFile    = ".leapdetail/state.db"
	DefaultWorkers      = 4
)

// DefaultCodeKeywords match headers of the indicator code column.
func DefaultCodeKeywords() []string {
	return []string{"项次", "序号", "项目", "行号", "指标编号", "code"}
}

// DefaultNameKeywords match headers of the indicator name column.
func DefaultNameKeywords() []string {
	return []string{"项目", "指标名称", "名称", "项 目", "name"}
}

// DefaultTables is the example mapping used when none is configured. Real
// deployments replace it with their own tables.
func DefaultTables() map[string][]string {
	return map[string][]string{
		"TABLE_GL": {
			"A.DATE",
			"A.ORG",
			"A.ITEM_NO",
			"A.ITEM_NAME",
			"A.CCY",
			"A.BALANCE",
		},
		"TABLE_ACCOUNT": {
			"A.DATE",
			"A.ORG",
			"A.ITEM_NO",
			"A.ACCT_NO",
			"A.CUST_NO",
			"B.CUST_NAME",
			"A.CCY",
			"A.BALANCE",
		},
	}
}

// ApplyColumnDefaults fills unset keyword lists.
func ApplyColumnDefaults(c *ColumnsConfig) {
	if c == nil {
		return
	}
	if len(c.CodeKeywords) == 0 {
		c.CodeKeywords = DefaultCodeKeywords()
	}
	if len(c.NameKeywords) == 0 {
		c.NameKeywords = DefaultNameKeywords()
	}
}
