package nftscan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/xerrors"

	bCtx "github.com/nftscan2022/nftscan-go/base/ctx"
	"github.com/nftscan2022/nftscan-go/base/log"
	"github.com/nftscan2022/nftscan-go/base/metrics"
	"github.com/nftscan2022/nftscan-go/base/validator"
	"github.com/nftscan2022/nftscan-go/domain"
)

const (
	defaultBaseUrl = "https://restapi.nftscan.com/api"
	defaultAuthUrl = "https://restapi.nftscan.com/gw/token"
	defaultVersion = "v1"
	defaultTimeout = 10 * time.Second

	accessTokenHeader = "Access-Token"
	contentTypeHeader = "Content-Type"
	contentTypeJson   = "application/json"

	maxPageSize     = 100
	defaultPageSize = 20
	// walletType marks requests coming from a third-party integration
	walletType = 3
)

const (
	epGetAllNftByUserAddress           = "getAllNftByUserAddress"
	epGetGroupByNftContract            = "getGroupByNftContract"
	epGetMintByUserAddress             = "getMintByUserAddress"
	epGetMintByUserAddressAndNftAddr   = "getMintByUserAddressAndNftAddress"
	epGetNftRecordByContract           = "getNFTRecordByContract"
	epGetNftByContractAndUserAddress   = "getNftByContractAndUserAddress"
	epGetRecordByUserAddressAndTokenId = "getRecordByUserAddressAndTokenId"
	epGetSingleNft                     = "getSingleNft"
	epGetSingleNftRecord               = "getSingleNftRecord"
	epGetStates                        = "getStates"
	epGetUserRecordByContract          = "getUserRecordByContract"
	epGetUserRecordByUserAddress       = "getUserRecordByUserAddress"
)

type paramKind int

const (
	kindString paramKind = iota
	kindInt
	kindTokenType
	kindAddress
	kindAddressList
)

type paramSpec struct {
	name     string
	kind     paramKind
	required bool
	// def fills the body when the argument is the zero value
	def interface{}
	// max caps kindInt values instead of rejecting them
	max int
}

type endpointSpec struct {
	params []paramSpec
	// fixed fields are always placed in the body as-is
	fixed map[string]interface{}
}

var (
	pErc       = paramSpec{name: "erc", kind: kindTokenType, required: true}
	pUserAddr  = paramSpec{name: "user_address", kind: kindAddress, required: true}
	pNftAddr   = paramSpec{name: "nft_address", kind: kindAddress, required: true}
	pTokenId   = paramSpec{name: "token_id", kind: kindString, required: true}
	pPageIndex = paramSpec{name: "page_index", kind: kindInt}
	pPageSize  = paramSpec{name: "page_size", kind: kindInt, def: defaultPageSize, max: maxPageSize}
)

// endpoints mirrors the upstream endpoint catalogue; the methods below are
// thin delegates into this table.
var endpoints = map[string]endpointSpec{
	epGetAllNftByUserAddress: {
		params: []paramSpec{pErc, pUserAddr, pPageIndex, pPageSize},
		fixed:  map[string]interface{}{"walletType": walletType},
	},
	epGetGroupByNftContract: {
		params: []paramSpec{pErc, pUserAddr},
	},
	epGetMintByUserAddress: {
		params: []paramSpec{pUserAddr, pPageIndex, pPageSize},
	},
	epGetMintByUserAddressAndNftAddr: {
		params: []paramSpec{pNftAddr, pUserAddr, pPageIndex, pPageSize},
	},
	epGetNftRecordByContract: {
		params: []paramSpec{pNftAddr, pPageIndex, pPageSize},
	},
	epGetNftByContractAndUserAddress: {
		params: []paramSpec{pNftAddr, pUserAddr, pPageIndex, pPageSize},
	},
	epGetRecordByUserAddressAndTokenId: {
		params: []paramSpec{pNftAddr, pUserAddr, pTokenId, pPageIndex, pPageSize},
	},
	epGetSingleNft: {
		params: []paramSpec{pNftAddr, pTokenId},
	},
	epGetSingleNftRecord: {
		params: []paramSpec{pNftAddr, pTokenId, pPageIndex, pPageSize},
	},
	epGetStates: {
		params: []paramSpec{{name: "nft_address", kind: kindAddressList, required: true}},
	},
	epGetUserRecordByContract: {
		params: []paramSpec{pNftAddr, pUserAddr, pPageIndex, pPageSize},
	},
	epGetUserRecordByUserAddress: {
		params: []paramSpec{pUserAddr, pPageIndex, pPageSize},
	},
}

func NewClient(cfg *ClientCfg) (Client, error) {
	if err := validator.Struct(cfg); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}
	c := &client{
		client:    cfg.HttpClient,
		timeout:   cfg.Timeout,
		apiKey:    cfg.ApiKey,
		apiSecret: cfg.ApiSecret,
		baseUrl:   cfg.BaseUrl,
		version:   cfg.Version,
		authUrl:   cfg.AuthUrl,
		stats:     cfg.Stats,
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}
	if c.baseUrl == "" {
		c.baseUrl = defaultBaseUrl
	}
	if c.version == "" {
		c.version = defaultVersion
	}
	if c.authUrl == "" {
		c.authUrl = defaultAuthUrl
	}
	return c, nil
}

type client struct {
	client    http.Client
	timeout   time.Duration
	apiKey    string
	apiSecret string
	baseUrl   string
	version   string
	authUrl   string
	stats     metrics.Service

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// statusToErr maps the status-code convention shared by the transport status
// and the envelope's embedded code.
func statusToErr(code int) error {
	switch code {
	case http.StatusBadRequest:
		return domain.ErrBadRequest
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case 495:
		return domain.ErrTlsError
	case http.StatusGatewayTimeout:
		return domain.ErrGatewayTimeout
	}
	return nil
}

// redactUrl strips the query string, which carries credentials on the token
// exchange. Logged urls must never contain the key or secret.
func redactUrl(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}

func argErr(name, msg string) error {
	return xerrors.Errorf("%s %s: %w", name, msg, domain.ErrInvalidArgument)
}

func (p paramSpec) normalize(v interface{}) (interface{}, error) {
	switch p.kind {
	case kindString:
		s, _ := v.(string)
		if s == "" {
			if p.required {
				return nil, argErr(p.name, "must not be blank")
			}
			if p.def != nil {
				return p.def, nil
			}
		}
		return s, nil
	case kindAddress:
		a, _ := v.(domain.Address)
		if a.IsEmpty() {
			return nil, argErr(p.name, "must not be blank")
		}
		if !validator.IsValidAddress(string(a)) {
			return nil, argErr(p.name, "is not a valid address")
		}
		return string(a), nil
	case kindAddressList:
		as, _ := v.([]domain.Address)
		if len(as) == 0 {
			return nil, argErr(p.name, "must not be empty")
		}
		out := make([]string, 0, len(as))
		for _, a := range as {
			if a.IsEmpty() || !validator.IsValidAddress(string(a)) {
				return nil, argErr(p.name, "contains an invalid address")
			}
			out = append(out, string(a))
		}
		return out, nil
	case kindInt:
		n, _ := v.(int)
		if n < 0 {
			return nil, argErr(p.name, "must not be negative")
		}
		if n == 0 {
			if d, ok := p.def.(int); ok {
				n = d
			}
		}
		if p.max > 0 && n > p.max {
			n = p.max
		}
		return n, nil
	case kindTokenType:
		t, _ := v.(domain.TokenType)
		if !t.Valid() {
			return nil, argErr(p.name, "must be erc721 or erc1155")
		}
		return string(t), nil
	}
	return nil, argErr(p.name, "has unknown kind")
}

func buildBody(ep endpointSpec, args map[string]interface{}) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	for k, v := range ep.fixed {
		body[k] = v
	}
	for _, p := range ep.params {
		val, err := p.normalize(args[p.name])
		if err != nil {
			return nil, err
		}
		body[p.name] = val
	}
	return body, nil
}

// call validates args against the endpoint table, then hands the assembled
// body to the authenticated pipeline.
func (c *client) call(ctx bCtx.Ctx, endpoint string, args map[string]interface{}, opts ...CallOption) (interface{}, error) {
	ep, ok := endpoints[endpoint]
	if !ok {
		return nil, xerrors.Errorf("%s: %w", endpoint, ErrUnknownEndpoint)
	}
	opt, err := ParseCallOptions(opts...)
	if err != nil {
		return nil, err
	}
	body, err := buildBody(ep, args)
	if err != nil {
		ctx.WithFields(log.Fields{
			"endpoint": endpoint,
			"err":      err,
		}).Error("argument validation failed")
		return nil, err
	}
	if c.stats != nil {
		defer c.stats.BumpTime("request.latency", "endpoint", endpoint).End()
	}
	return c.sendAuthenticated(ctx, endpoint, body, opt)
}

// sendAuthenticated performs one round trip, re-authenticating and retrying
// exactly once on any failure. The retry's error propagates unchanged. A
// stale or absent token is refreshed up front to save the wasted round trip.
func (c *client) sendAuthenticated(ctx bCtx.Ctx, endpoint string, body map[string]interface{}, opt *CallOptions) (interface{}, error) {
	c.mu.Lock()
	stale := c.token == "" || !time.Now().Before(c.expiry)
	c.mu.Unlock()
	if stale {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
	}

	res, err := c.send(ctx, endpoint, body, opt)
	if err == nil {
		return res, nil
	}

	// any failure may mean a stale token, re-authenticate once and retry
	ctx.WithFields(log.Fields{
		"endpoint": endpoint,
		"err":      err,
	}).Warn("request failed, re-authenticating")
	if c.stats != nil {
		c.stats.BumpSum("reauth.count", 1, "endpoint", endpoint)
	}
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, endpoint, body, opt)
}

func (c *client) send(ctx bCtx.Ctx, endpoint string, body map[string]interface{}, opt *CallOptions) (interface{}, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseUrl, c.version, endpoint)
	hdr := map[string]string{contentTypeHeader: contentTypeJson}
	c.mu.Lock()
	if c.token != "" {
		hdr[accessTokenHeader] = c.token
	}
	c.mu.Unlock()
	return c.roundTrip(ctx, u, hdr, body, opt)
}

// authenticate exchanges the key/secret pair for a bearer token. The
// credentials travel in the query string even though the call is a POST; that
// is the live gateway's contract. The bearer token header is never attached
// here.
func (c *client) authenticate(ctx bCtx.Ctx) error {
	params := url.Values{
		"apiKey":    {c.apiKey},
		"apiSecret": {c.apiSecret},
	}
	authUrl := fmt.Sprintf("%s?%s", c.authUrl, params.Encode())
	data, err := c.roundTrip(ctx, authUrl, nil, nil, &CallOptions{})
	if err != nil {
		ctx.WithField("err", err).Error("token exchange failed")
		return err
	}

	fields, ok := data.(map[string]interface{})
	if !ok {
		return xerrors.Errorf("token exchange payload is not an object: %w", domain.ErrMalformedResponse)
	}
	token, ok := fields["accessToken"].(string)
	if !ok || token == "" {
		return xerrors.Errorf("no accessToken in token exchange response: %w", domain.ErrMalformedResponse)
	}
	expiration, ok := fields["expiration"].(float64)
	if !ok {
		return xerrors.Errorf("no expiration in token exchange response: %w", domain.ErrMalformedResponse)
	}

	c.mu.Lock()
	c.token = token
	c.expiry = time.Now().Add(time.Duration(expiration) * time.Second)
	c.mu.Unlock()

	if c.stats != nil {
		c.stats.BumpSum("authenticate.count", 1)
	}
	return nil
}

// roundTrip is the single place that talks HTTP. It applies the dual
// status-code convention: the transport status is inspected first, then the
// envelope's embedded code; either may signal failure.
func (c *client) roundTrip(ctx bCtx.Ctx, rawUrl string, hdr map[string]string, body interface{}, opt *CallOptions) (interface{}, error) {
	logUrl := redactUrl(rawUrl)
	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			ctx.WithField("err", err).Error("json.Marshal failed")
			return nil, err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", rawUrl, payload)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": logUrl,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, err
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": logUrl,
			"err": err,
		}).Error("client.Do failed")
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrTransport)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": logUrl,
			"err": err,
		}).Error("failed to read body")
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrTransport)
	}

	if err := statusToErr(resp.StatusCode); err != nil {
		ctx.WithFields(log.Fields{
			"url":        logUrl,
			"statusCode": resp.StatusCode,
		}).Error("status code mapped to error")
		return nil, err
	}

	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		ctx.WithFields(log.Fields{
			"url": logUrl,
			"err": err,
		}).Error("json.Unmarshal failed")
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrMalformedResponse)
	}
	if env.Code == nil {
		return nil, xerrors.Errorf("no status code in response body: %w", domain.ErrMalformedResponse)
	}
	if env.Data == nil {
		return nil, xerrors.Errorf("no data in response body: %w", domain.ErrMalformedResponse)
	}
	if err := statusToErr(*env.Code); err != nil {
		ctx.WithFields(log.Fields{
			"url":  logUrl,
			"code": *env.Code,
		}).Error("embedded code mapped to error")
		return nil, err
	}

	if opt.ExportFile != "" {
		if err := exportFile(ctx, opt.ExportFile, env.Data); err != nil {
			return nil, err
		}
	}
	if opt.RawResponse != nil {
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		*opt.RawResponse = resp
	}

	var data interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		ctx.WithFields(log.Fields{
			"url": logUrl,
			"err": err,
		}).Error("json.Unmarshal failed")
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrMalformedResponse)
	}
	return data, nil
}

func (c *client) GetAllNftByUserAddress(ctx bCtx.Ctx, erc domain.TokenType, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetAllNftByUserAddress, map[string]interface{}{
		"erc":          erc,
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetGroupByNftContract(ctx bCtx.Ctx, erc domain.TokenType, userAddress domain.Address, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetGroupByNftContract, map[string]interface{}{
		"erc":          erc,
		"user_address": userAddress,
	}, opts...)
}

func (c *client) GetMintByUserAddress(ctx bCtx.Ctx, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetMintByUserAddress, map[string]interface{}{
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetMintByUserAddressAndNftAddress(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetMintByUserAddressAndNftAddr, map[string]interface{}{
		"nft_address":  nftAddress,
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetNftRecordByContract(ctx bCtx.Ctx, nftAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetNftRecordByContract, map[string]interface{}{
		"nft_address": nftAddress,
		"page_index":  pageIndex,
		"page_size":   pageSize,
	}, opts...)
}

func (c *client) GetNftByContractAndUserAddress(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetNftByContractAndUserAddress, map[string]interface{}{
		"nft_address":  nftAddress,
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetRecordByUserAddressAndTokenId(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, tokenId string, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetRecordByUserAddressAndTokenId, map[string]interface{}{
		"nft_address":  nftAddress,
		"user_address": userAddress,
		"token_id":     tokenId,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetSingleNft(ctx bCtx.Ctx, nftAddress domain.Address, tokenId string, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetSingleNft, map[string]interface{}{
		"nft_address": nftAddress,
		"token_id":    tokenId,
	}, opts...)
}

func (c *client) GetSingleNftRecord(ctx bCtx.Ctx, nftAddress domain.Address, tokenId string, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetSingleNftRecord, map[string]interface{}{
		"nft_address": nftAddress,
		"token_id":    tokenId,
		"page_index":  pageIndex,
		"page_size":   pageSize,
	}, opts...)
}

func (c *client) GetStates(ctx bCtx.Ctx, nftAddresses []domain.Address, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetStates, map[string]interface{}{
		"nft_address": nftAddresses,
	}, opts...)
}

func (c *client) GetUserRecordByContract(ctx bCtx.Ctx, nftAddress, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetUserRecordByContract, map[string]interface{}{
		"nft_address":  nftAddress,
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}

func (c *client) GetUserRecordByUserAddress(ctx bCtx.Ctx, userAddress domain.Address, pageIndex, pageSize int, opts ...CallOption) (interface{}, error) {
	return c.call(ctx, epGetUserRecordByUserAddress, map[string]interface{}{
		"user_address": userAddress,
		"page_index":   pageIndex,
		"page_size":    pageSize,
	}, opts...)
}
