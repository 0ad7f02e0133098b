package gatetest

import (
	"bytes"
	"io"
	"net/http"

	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

// Seed fills store with a small portfolio: two proposals awaiting OPS, one
// awaiting RISK and one of each terminal stage.
func Seed(store *Store) {
	store.Put(Proposal{
		Summary: types.ProposalSummary{
			ProposalID:             "P-1001",
			GroupID:                "G-17",
			LeaderName:             "Maria Lopez",
			MembersCount:           intPtr(3),
			TotalAmount:            floatPtr(15000),
			SubmittedAt:            "2024-03-01T10:00:00Z",
			Stage:                  string(policy.StageDocReview),
			EvidenceRequiredCount:  intPtr(6),
			EvidenceCompletedCount: intPtr(4),
		},
		Payload: map[string]any{
			"members": []any{
				map[string]any{
					"memberId":    "m-1",
					"name":        "Maria Lopez",
					"isLeader":    true,
					"phoneNumber": "555-0101",
					"loanAmount":  6000,
					"address":     "Calle 5 #12",
					"evidence": map[string]any{
						"clientSelfie": "https://files.example.com/m-1/selfie.jpg",
						"idFront":      "https://files.example.com/m-1/id-front.jpg",
					},
				},
				map[string]any{
					"memberId":   "m-2",
					"name":       "Ana Ruiz",
					"loanAmount": 4500,
					"evidence": map[string]any{
						"idFront": "data:image/png;base64,iVBORw0KGgo=",
					},
				},
				map[string]any{
					"memberId":   "m-3",
					"name":       "Luz Torres",
					"loanAmount": 4500,
					"documents": map[string]any{
						"businessPhoto": map[string]any{"name": "shop.jpg", "url": "https://files.example.com/m-3/shop.jpg"},
					},
				},
			},
			"contract": map[string]any{
				"contractId": "C-88",
				"createdAt":  "2024-02-28T18:00:00Z",
				"signatures": []any{
					map[string]any{"memberId": "m-1", "name": "Maria Lopez", "signedAt": "2024-02-28T18:30:00Z"},
				},
			},
		},
	})
	store.Put(Proposal{
		Summary: types.ProposalSummary{
			ProposalID:   "P-1002",
			GroupID:      "G-18",
			LeaderName:   "Juan Perez",
			MembersCount: intPtr(2),
			TotalAmount:  floatPtr(8000),
			SubmittedAt:  "2024-03-03T09:15:00Z",
			Stage:        string(policy.StageDocReview),
		},
		Payload: map[string]any{
			"members": []any{
				map[string]any{"id": "m-9", "name": "Juan Perez", "role": "leader"},
				map[string]any{"id": "m-10", "name": "Sofia Diaz"},
			},
		},
	})
	store.Put(Proposal{
		Summary: types.ProposalSummary{
			ProposalID:   "P-1003",
			LeaderName:   "Rosa Gil",
			MembersCount: intPtr(4),
			TotalAmount:  floatPtr(22000),
			SubmittedAt:  "2024-02-20T12:00:00Z",
			Stage:        string(policy.StageRiskReview),
		},
		Decisions: []types.ProposalDecision{{
			Stage:     string(policy.StageDocReview),
			Decision:  string(policy.DecisionApprove),
			Reasons:   []string{},
			UserID:    "ops-1",
			DecidedAt: "2024-02-21T08:00:00Z",
		}},
	})
	store.Put(Proposal{
		Summary: types.ProposalSummary{
			ProposalID:  "P-0990",
			LeaderName:  "Elena Cruz",
			TotalAmount: floatPtr(12000),
			SubmittedAt: "2024-01-10T12:00:00Z",
			Stage:       string(policy.StageApproved),
		},
	})
	store.Put(Proposal{
		Summary: types.ProposalSummary{
			ProposalID:  "P-0991",
			LeaderName:  "Pablo Mora",
			SubmittedAt: "2024-01-12T12:00:00Z",
			Stage:       string(policy.StageRejected),
		},
	})
}

func readAll(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}
