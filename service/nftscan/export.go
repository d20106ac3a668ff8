package nftscan

import (
	"os"

	bCtx "github.com/nftscan2022/nftscan-go/base/ctx"
	"github.com/nftscan2022/nftscan-go/base/log"
)

// exportFile writes content under name, overwriting any existing file.
func exportFile(ctx bCtx.Ctx, name string, content []byte) error {
	if err := os.WriteFile(name, content, 0o644); err != nil {
		ctx.WithFields(log.Fields{
			"file": name,
			"err":  err,
		}).Error("os.WriteFile failed")
		return err
	}
	return nil
}
