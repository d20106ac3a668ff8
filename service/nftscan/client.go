package nftscan

import (
	"errors"
	"net/http"
	"time"

	bCtx "github.com/nftscan2022/nftscan-go/base/ctx"
	"github.com/nftscan2022/nftscan-go/base/metrics"
	"github.com/nftscan2022/nftscan-go/domain"
)

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

// Client is the NFTScan REST API surface. Every method validates its
// arguments locally, then performs one authenticated round trip; on any
// failure the client re-authenticates once and retries the call exactly one
// more time. Payload shapes are endpoint specific and passed through untyped.
type Client interface {
	GetAllNftByUserAddress(ctx bCtx.Ctx, erc domain.TokenType, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetGroupByNftContract(ctx bCtx.Ctx, erc domain.TokenType, userAddress domain.Address, opts ...CallOption) (interface{}, error)
	GetMintByUserAddress(ctx bCtx.Ctx, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetMintByUserAddressAndNftAddress(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetNftRecordByContract(ctx bCtx.Ctx, nftAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetNftByContractAndUserAddress(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetRecordByUserAddressAndTokenId(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, tokenId string, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetSingleNft(ctx bCtx.Ctx, nftAddress domain.Address, tokenId string, opts ...CallOption) (interface{}, error)
	GetSingleNftRecord(ctx bCtx.Ctx, nftAddress domain.Address, tokenId string, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetStates(ctx bCtx.Ctx, nftAddresses []domain.Address, opts ...CallOption) (interface{}, error)
	GetUserRecordByContract(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
	GetUserRecordByUserAddress(ctx bCtx.Ctx, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error)
}

type ClientCfg struct {
	HttpClient http.Client
	// Timeout bounds each round trip, token exchange included
	Timeout   time.Duration
	ApiKey    string `validate:"required"`
	ApiSecret string `validate:"required"`
	// BaseUrl overrides the main API host, without the version segment
	BaseUrl string
	// Version is the API version path segment
	Version string
	// AuthUrl overrides the token exchange endpoint
	AuthUrl string
	// Stats, when set, receives request latency and re-authentication counters
	Stats metrics.Service
}

type CallOptions struct {
	ExportFile  string
	RawResponse **http.Response
}

type CallOption func(*CallOptions) error

func ParseCallOptions(opts ...CallOption) (*CallOptions, error) {
	res := &CallOptions{}
	for _, opt := range opts {
		if err := opt(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// WithExportFile writes the JSON-serialized data payload under name,
// overwriting any existing file.
func WithExportFile(name string) CallOption {
	return func(options *CallOptions) error {
		options.ExportFile = name
		return nil
	}
}

// WithRawResponse stores the transport response into dst in addition to the
// decoded payload. The body is re-wound and readable.
func WithRawResponse(dst **http.Response) CallOption {
	return func(options *CallOptions) error {
		options.RawResponse = dst
		return nil
	}
}
