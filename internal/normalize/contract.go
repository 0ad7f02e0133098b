package normalize

import "github.com/davidahmann/gate/pkg/types"

// ExtractContract returns nil when payload has no contract object.
// Signatures come from the contract itself or, failing that, a top-level
// signatures list.
func ExtractContract(payload map[string]any) *types.Contract {
	raw, ok := lookup(payload, "contract")
	if !ok {
		return nil
	}
	contract, ok := asObject(raw)
	if !ok {
		return nil
	}

	var signaturesRaw []any
	if list, ok := asList(contract["signatures"]); ok {
		signaturesRaw = list
	} else if top, ok := lookup(payload, "signatures"); ok {
		signaturesRaw, _ = asList(top)
	}

	signatures := make([]types.ContractSignature, 0, len(signaturesRaw))
	for _, s := range signaturesRaw {
		signatures = append(signatures, normalizeSignature(s))
	}

	return &types.Contract{
		ContractID: identifier(contract, "contractId", "id"),
		CreatedAt:  text(contract, "createdAt"),
		Signatures: signatures,
	}
}

func normalizeSignature(raw any) types.ContractSignature {
	obj, ok := asObject(raw)
	if !ok {
		return types.ContractSignature{}
	}
	return types.ContractSignature{
		MemberID:     identifier(obj, "memberId"),
		Name:         text(obj, "name", "memberName"),
		SignedAt:     text(obj, "signedAt"),
		SignatureURL: text(obj, "signatureUrl", "signature"),
	}
}
