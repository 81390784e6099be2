package transform

// RuleTag identifies a rule category that fired during transformation.
// Tags drive the per-file conversion report; categories that never fire
// are omitted from the report entirely.
type RuleTag string

// Rule tags.
const (
	TagTypeMapped         RuleTag = "type-mapped"
	TagTypeUnmapped       RuleTag = "type-unmapped"
	TagSequenceDefault    RuleTag = "sequence-default"
	TagTimestampDefault   RuleTag = "current-timestamp-default"
	TagFunctionDefault    RuleTag = "function-default"
	TagDefaultUnwrapped   RuleTag = "default-constraint-unwrapped"
	TagIdentityRewritten  RuleTag = "identity-rewritten"
	TagTemporalDropped    RuleTag = "temporal-clauses-dropped"
	TagClusterDropped     RuleTag = "cluster-qualifier-dropped"
	TagTableOptionDropped RuleTag = "table-option-dropped"
	TagColumnstoreOmit    RuleTag = "columnstore-omitted"
	TagIndexCommentOmit   RuleTag = "index-comment-omitted"
	TagCommentMapped      RuleTag = "comment-mapped"
	TagSettingDropped     RuleTag = "session-setting-dropped"
	TagMissingSequence    RuleTag = "missing-sequence-definition"
	TagNeedsReview        RuleTag = "needs-manual-review"
	TagUsesGeography      RuleTag = "uses-geography"
)

// AppliedRule records one rule firing with a human-readable detail,
// e.g. {type-mapped, "NVARCHAR(100) -> VARCHAR(100)"}.
type AppliedRule struct {
	Tag    RuleTag
	Detail string
}
