package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenTypeValid(t *testing.T) {
	req := require.New(t)
	req.True(TokenTypeErc721.Valid())
	req.True(TokenTypeErc1155.Valid())
	req.False(TokenType("erc20").Valid())
	req.False(TokenType("").Valid())
}

func TestEnvelopeFieldPresence(t *testing.T) {
	req := require.New(t)

	var e Envelope
	req.NoError(json.Unmarshal([]byte(`{"code":0,"data":{"foo":"bar"}}`), &e))
	req.NotNil(e.Code)
	req.NotNil(e.Data)

	e = Envelope{}
	req.NoError(json.Unmarshal([]byte(`{"code":401,"data":null}`), &e))
	req.Equal(401, *e.Code)
	// "data": null is present, only a missing key leaves Data nil
	req.NotNil(e.Data)

	e = Envelope{}
	req.NoError(json.Unmarshal([]byte(`{"code":0}`), &e))
	req.Nil(e.Data)

	e = Envelope{}
	req.NoError(json.Unmarshal([]byte(`{"data":{}}`), &e))
	req.Nil(e.Code)
}
