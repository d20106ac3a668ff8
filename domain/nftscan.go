package domain

import (
	"encoding/json"
	"strings"
)

// Address is an EVM account or contract address
type Address string

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

// TokenType is the token standard understood by the NFTScan API
type TokenType string

const (
	TokenTypeErc721  TokenType = "erc721"
	TokenTypeErc1155 TokenType = "erc1155"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeErc721, TokenTypeErc1155:
		return true
	}
	return false
}

// Envelope is the outer structure wrapping every NFTScan response. The API
// encodes failures in-body even when the transport status is 200, so Code is
// authoritative alongside the HTTP status. Pointer and RawMessage keep field
// absence distinguishable from zero values ("data": null still counts as
// present).
type Envelope struct {
	Code *int            `json:"code"`
	Data json.RawMessage `json:"data"`
}
