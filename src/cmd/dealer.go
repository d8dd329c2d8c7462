package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/warp-contracts/dealer/src/dealer"
	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	privateKey   string
	keystoreFile string
	network      string
)

func init() {
	dealerCmd.Flags().StringVar(&privateKey, "pk", "", "hex encoded private key of the bot")
	dealerCmd.Flags().StringVar(&keystoreFile, "jks", "", "encrypted keystore file of the bot, password is read from the terminal")
	dealerCmd.Flags().StringVar(&network, "network", "", "one of: "+strings.Join(eth.NetworkNames(), ", "))
	RootCmd.AddCommand(dealerCmd)
}

func readPassword() (password string, err error) {
	fmt.Fprint(os.Stderr, "Keystore password: ")
	defer fmt.Fprintln(os.Stderr)

	buf, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return
	}
	return string(buf), nil
}

func loadKey() (key *ecdsa.PrivateKey, err error) {
	if privateKey != "" {
		return eth.LoadPrivateKey(privateKey)
	}

	if keystoreFile == "" {
		return nil, eth.ErrMissingCredential
	}

	password, err := readPassword()
	if err != nil {
		return
	}
	return eth.LoadKeystore(keystoreFile, password)
}

var dealerCmd = &cobra.Command{
	Use:   "dealer",
	Short: "Keeps committed secret hashes available and reveals assigned secrets",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if network != "" {
			conf.Chain.Network = network
		}

		key, err := loadKey()
		if err != nil {
			return
		}

		controller, err := dealer.NewController(conf, key)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished dealer command")
		applicationCtxCancel()
		return
	},
}
