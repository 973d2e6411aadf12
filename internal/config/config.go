package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Defaults point at the Mumbai deployment of the PolyEscrow contracts.
const (
	DefaultBettingContract = "0xca3f697B9A1eF4fC2C6ecEFD62239A4b2Df8F925"
	DefaultTokenContract   = "0x8A953CfE442c5E8855cc6c61b1293FA648BAE472"
	DefaultDeployedBlock   = 25753029
	DefaultConfirmations   = 10
)

// Settings keeps all configuration options. Everything here is static
// per deployment; none of it is user-facing.
type Settings struct {
	RPCURL     string // signer-path JSON-RPC endpoint
	WSURL      string // websocket endpoint for log subscriptions
	ReadRPCURL string // optional read-only endpoint; falls back to RPCURL

	ChainID     *big.Int // network the contracts are deployed on
	NetworkName string   // display name of that network

	BettingContract common.Address
	TokenContract   common.Address
	DeployedBlock   uint64 // lower bound for historical log scans; never genesis

	Confirmations  uint64 // blocks after inclusion before a tx counts as final
	ExplorerTxBase string // block-explorer link prefix for tx hashes

	PrivateKeyHex string

	Env         string // "local", "dev", "prod"
	MetricsPort string
}

// Load reads settings from environment with per-key defaults.
func Load() Settings {
	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return def
	}
	getUint := func(k string, def uint64) uint64 {
		s := get(k, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
		return def
	}

	st := Settings{}
	st.RPCURL = get("RPC_URL", "https://rpc-mumbai.maticvigil.com")
	st.WSURL = get("WS_URL", "wss://rpc-mumbai.maticvigil.com/ws")
	st.ReadRPCURL = get("READ_RPC_URL", "")

	chainID := new(big.Int)
	if _, ok := chainID.SetString(get("CHAIN_ID", "80001"), 10); !ok {
		chainID = big.NewInt(80001)
	}
	st.ChainID = chainID
	st.NetworkName = get("NETWORK_NAME", "maticmum")

	st.BettingContract = common.HexToAddress(get("BETTING_CONTRACT", DefaultBettingContract))
	st.TokenContract = common.HexToAddress(get("TOKEN_CONTRACT", DefaultTokenContract))
	st.DeployedBlock = getUint("DEPLOYED_BLOCK", DefaultDeployedBlock)

	st.Confirmations = getUint("CONFIRMATIONS", DefaultConfirmations)
	st.ExplorerTxBase = get("EXPLORER_TX_BASE", "https://mumbai.polygonscan.com/tx/")

	st.PrivateKeyHex = get("PRIVATE_KEY", "")

	st.Env = get("ENV", "local")
	st.MetricsPort = get("METRICS_PORT", "9095")

	return st
}
