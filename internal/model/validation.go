package model

// IssueCode identifies the rule that produced a validation issue.
type IssueCode string

// Validation issue codes.
const (
	IssueDescriptionRequired  IssueCode = "description_required"
	IssueCategoryRequired     IssueCode = "category_required"
	IssueAmountPositive       IssueCode = "amount_positive"
	IssueCategoryUnknown      IssueCode = "category_unknown"
	IssueCategoryInactive     IssueCode = "category_inactive"
	IssueCategoryTypeMismatch IssueCode = "category_type_mismatch"
	IssueMaxTransactionAmount IssueCode = "max_transaction_amount"
	IssueMaxDailyAmount       IssueCode = "max_daily_amount"
	IssueMaxMonthlyAmount     IssueCode = "max_monthly_amount"
	IssueDailyUnchecked       IssueCode = "daily_limit_unchecked"
	IssueMonthlyUnchecked     IssueCode = "monthly_limit_unchecked"
)

// Approval reasons.
const (
	ApprovalReasonPolicy    = "category requires approval by policy"
	ApprovalReasonThreshold = "amount exceeds approval threshold"
)

// ValidationIssue is a single blocking error or non-blocking warning.
type ValidationIssue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
}

func (i ValidationIssue) String() string {
	return i.Message
}

// ValidationResult is the outcome of validating a transaction.
// ApprovalReason is non-empty iff RequiresApproval is set.
type ValidationResult struct {
	ApprovalReason   string            `json:"approvalReason,omitempty"`
	Errors           []ValidationIssue `json:"errors"`
	Warnings         []ValidationIssue `json:"warnings"`
	IsValid          bool              `json:"isValid"`
	RequiresApproval bool              `json:"requiresApproval"`
}

// HasIssue reports whether an error or warning with the code is present.
func (r ValidationResult) HasIssue(code IssueCode) bool {
	for _, issue := range r.Errors {
		if issue.Code == code {
			return true
		}
	}
	for _, issue := range r.Warnings {
		if issue.Code == code {
			return true
		}
	}
	return false
}
