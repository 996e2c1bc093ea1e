package helius

import (
	"encoding/json"
	"strings"
)

// RawTransaction is one entry from the Helius enhanced transactions API,
// kept as the provider returns it. Normalization happens downstream.
type RawTransaction struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	Fee             int64            `json:"fee"` // lamports
	Type            string           `json:"type"`
	Source          string           `json:"source"`
	Description     string           `json:"description"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	AccountData     []AccountData    `json:"accountData"`
	Events          TxEvents         `json:"events"`
}

type TokenTransfer struct {
	Mint            string  `json:"mint"`
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
}

type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

type AccountData struct {
	Account string `json:"account"`
}

// TxEvents keeps the provider's event payloads opaque; only presence matters.
type TxEvents struct {
	NFT json.RawMessage `json:"nft"`
}

// HasNFTEvent reports whether the provider attached an NFT event to the
// transaction. Absent, null and false payloads all count as no event.
func (t *RawTransaction) HasNFTEvent() bool {
	s := strings.TrimSpace(string(t.Events.NFT))
	return s != "" && s != "null" && s != "false"
}

// RawAsset is one item from the Helius DAS getAssetsByOwner response.
type RawAsset struct {
	ID        string `json:"id"`
	Interface string `json:"interface"` // "FungibleToken", "FungibleAsset", "V1_NFT", ...
	Content   struct {
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
	TokenInfo struct {
		Balance   float64 `json:"balance"` // raw integer units
		Decimals  int     `json:"decimals"`
		PriceInfo struct {
			TotalPrice float64 `json:"total_price"` // upstream USD estimate, may be absent
		} `json:"price_info"`
	} `json:"token_info"`
}

// IsFungible reports whether the asset is a unit-balance token rather than
// a unique collectible.
func (a *RawAsset) IsFungible() bool {
	return a.Interface == "FungibleToken" || a.Interface == "FungibleAsset"
}

// AssetsResult is the owner-scoped holdings snapshot: token items plus the
// native SOL balance already converted from lamports.
type AssetsResult struct {
	Items         []RawAsset `json:"items"`
	NativeBalance float64    `json:"nativeBalance"` // SOL
}
