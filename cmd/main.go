package main

import (
	"fmt"
	"os"

	"github.com/arcadia-pay/arcpay/cmd/arcpay"
)

func main() {
	rootCmd := arcpay.BuildArcpayCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
