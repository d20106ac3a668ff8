package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	bCtx "github.com/nftscan2022/nftscan-go/base/ctx"
	"github.com/nftscan2022/nftscan-go/base/log"
	"github.com/nftscan2022/nftscan-go/base/metrics"
	"github.com/nftscan2022/nftscan-go/domain"
	"github.com/nftscan2022/nftscan-go/service/nftscan"
)

var (
	configFile  = pflag.String("config", "config.yaml", "yaml config carrying api_key and api_secret")
	endpoint    = pflag.String("endpoint", "", "operation to invoke, see usage")
	userAddress = pflag.String("user-address", "", "user wallet address")
	nftAddress  = pflag.String("nft-address", "", "nft contract address, comma separated for states")
	tokenId     = pflag.String("token-id", "", "token id")
	erc         = pflag.String("erc", "erc721", "token standard, erc721 or erc1155")
	pageIndex   = pflag.Int("page-index", 0, "page index")
	pageSize    = pflag.Int("page-size", 20, "page size, capped at 100")
	exportFile  = pflag.String("export", "", "write the data payload to this file")
)

func main() {
	pflag.Parse()
	defer log.Flush()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Log().WithField("err", err).Panic("read config failed")
	}

	cli, err := nftscan.NewClient(&nftscan.ClientCfg{
		ApiKey:    viper.GetString("api_key"),
		ApiSecret: viper.GetString("api_secret"),
		BaseUrl:   viper.GetString("base_url"),
		Timeout:   viper.GetDuration("timeout"),
		Stats:     metrics.New("nftscan"),
	})
	if err != nil {
		log.Log().WithField("err", err).Panic("NewClient failed")
	}

	ctx := bCtx.WithValue(bCtx.Background(), "reqId", uuid.New().String())

	var opts []nftscan.CallOption
	if *exportFile != "" {
		opts = append(opts, nftscan.WithExportFile(*exportFile))
	}

	ua := domain.Address(*userAddress)
	na := domain.Address(*nftAddress)
	tt := domain.TokenType(strings.ToLower(*erc))

	var res interface{}
	switch *endpoint {
	case "all-by-user":
		res, err = cli.GetAllNftByUserAddress(ctx, tt, ua, *pageIndex, *pageSize, opts...)
	case "group-by-contract":
		res, err = cli.GetGroupByNftContract(ctx, tt, ua, opts...)
	case "mint-by-user":
		res, err = cli.GetMintByUserAddress(ctx, ua, *pageIndex, *pageSize, opts...)
	case "mint-by-user-and-contract":
		res, err = cli.GetMintByUserAddressAndNftAddress(ctx, na, ua, *pageIndex, *pageSize, opts...)
	case "record-by-contract":
		res, err = cli.GetNftRecordByContract(ctx, na, *pageIndex, *pageSize, opts...)
	case "by-contract-and-user":
		res, err = cli.GetNftByContractAndUserAddress(ctx, na, ua, *pageIndex, *pageSize, opts...)
	case "record-by-user-and-token":
		res, err = cli.GetRecordByUserAddressAndTokenId(ctx, na, ua, *tokenId, *pageIndex, *pageSize, opts...)
	case "single":
		res, err = cli.GetSingleNft(ctx, na, *tokenId, opts...)
	case "single-record":
		res, err = cli.GetSingleNftRecord(ctx, na, *tokenId, *pageIndex, *pageSize, opts...)
	case "states":
		var addrs []domain.Address
		for _, a := range strings.Split(*nftAddress, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, domain.Address(a))
			}
		}
		res, err = cli.GetStates(ctx, addrs, opts...)
	case "user-record-by-contract":
		res, err = cli.GetUserRecordByContract(ctx, na, ua, *pageIndex, *pageSize, opts...)
	case "user-record-by-user":
		res, err = cli.GetUserRecordByUserAddress(ctx, ua, *pageIndex, *pageSize, opts...)
	default:
		fmt.Fprintf(os.Stderr, "unknown endpoint %q\n", *endpoint)
		fmt.Fprintln(os.Stderr, "endpoints: all-by-user, group-by-contract, mint-by-user, mint-by-user-and-contract, record-by-contract, by-contract-and-user, record-by-user-and-token, single, single-record, states, user-record-by-contract, user-record-by-user")
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		ctx.WithField("err", err).Error("request failed")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		ctx.WithField("err", err).Error("json.MarshalIndent failed")
		os.Exit(1)
	}
	fmt.Println(string(out))
}
