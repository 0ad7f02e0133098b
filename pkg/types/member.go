package types

// Member is a person or business record extracted from a proposal payload.
// Empty strings and nil numbers mean the upstream field was absent or of the
// wrong type.
type Member struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	IsLeader        bool              `json:"isLeader"`
	LoanAmount      *float64          `json:"loanAmount,omitempty"`
	LoanPurpose     string            `json:"loanPurpose,omitempty"`
	PhoneNumber     string            `json:"phoneNumber,omitempty"`
	Email           string            `json:"email,omitempty"`
	NationalID      string            `json:"nationalId,omitempty"`
	DateOfBirth     string            `json:"dateOfBirth,omitempty"`
	Gender          string            `json:"gender,omitempty"`
	Address         string            `json:"address,omitempty"`
	BusinessName    string            `json:"businessName,omitempty"`
	BusinessType    string            `json:"businessType,omitempty"`
	BusinessAddress string            `json:"businessAddress,omitempty"`
	MonthlyIncome   *float64          `json:"monthlyIncome,omitempty"`
	MonthlyExpenses *float64          `json:"monthlyExpenses,omitempty"`
	ExistingLoans   *float64          `json:"existingLoans,omitempty"`
	Evidence        map[string]string `json:"evidence,omitempty"`
}

type Contract struct {
	ContractID string              `json:"contractId,omitempty"`
	CreatedAt  string              `json:"createdAt,omitempty"`
	Signatures []ContractSignature `json:"signatures"`
}

type ContractSignature struct {
	MemberID     string `json:"memberId,omitempty"`
	Name         string `json:"name,omitempty"`
	SignedAt     string `json:"signedAt,omitempty"`
	SignatureURL string `json:"signatureUrl,omitempty"`
}

// Evidence slots every member is expected to carry.
var EvidenceKeys = []string{
	"clientSelfie",
	"idFront",
	"idBack",
	"businessProofOfAddress",
	"businessPhoto",
}
