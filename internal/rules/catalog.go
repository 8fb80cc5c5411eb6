package rules

// DefaultRules builds the fixed, registration-ordered rule vector the
// default validator runs. There is no mutable registry to Register()
// into at runtime — every rule this package ships is listed here once,
// built at startup.
func DefaultRules() []Rule {
	return []Rule{
		WhereRequiredOnUpdate(),
		WhereRequiredOnDelete(),
		DummyCondition(),
		MissingPagination(),
		DeepPagination(),
		LogicalPagination(),
		LargePageSize(),
		MissingOrderByWithPagination(),
		BlacklistField(),
		WhitelistField(),
		DeniedTable(),
		ReadOnlyTable(),
		MultiStatement(),
		SetOperation(),
		SQLComment(),
		IntoOutfile(),
		DDLOperation(),
		DangerousFunction(),
		CallOrExec(),
		MetadataStatement(),
		SetStatement(),
	}
}
