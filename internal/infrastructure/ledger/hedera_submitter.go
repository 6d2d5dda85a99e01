package ledger

import (
	"errors"
	"fmt"

	"github.com/hashgraph/hedera-sdk-go/v2"
)

// HederaConfig holds the operator credentials used to sign transfers
type HederaConfig struct {
	Network            string
	OperatorAccountID  string
	OperatorPrivateKey string
}

// HederaSubmitter submits token transactions to a Hedera network. The
// operator account is the treasury; the client signs every transaction with
// the operator key, which is also the admin and supply key of minted tokens.
type HederaSubmitter struct {
	client     *hedera.Client
	operatorID hedera.AccountID
	key        hedera.PrivateKey
}

// NewHederaSubmitter creates a client for the configured network with the operator set
func NewHederaSubmitter(cfg HederaConfig) (*HederaSubmitter, error) {
	operatorID, err := hedera.AccountIDFromString(cfg.OperatorAccountID)
	if err != nil {
		return nil, fmt.Errorf("hedera: operator account: %w", err)
	}
	key, err := hedera.PrivateKeyFromString(cfg.OperatorPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("hedera: operator key: %w", err)
	}
	client, err := hedera.ClientForName(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("hedera: client for %s: %w", cfg.Network, err)
	}
	client.SetOperator(operatorID, key)

	return &HederaSubmitter{client: client, operatorID: operatorID, key: key}, nil
}

// OperatorAccountID returns the account that signs transfers
func (s *HederaSubmitter) OperatorAccountID() string {
	return s.operatorID.String()
}

// SubmitTokenTransfer moves amount of tokenID from one account to another and
// waits for the receipt. Only a SUCCESS receipt counts.
func (s *HederaSubmitter) SubmitTokenTransfer(tokenID, from, to string, amount int64) (string, error) {
	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return "", fmt.Errorf("hedera: token id: %w", err)
	}
	fromID, err := hedera.AccountIDFromString(from)
	if err != nil {
		return "", fmt.Errorf("hedera: sender: %w", err)
	}
	toID, err := hedera.AccountIDFromString(to)
	if err != nil {
		return "", fmt.Errorf("hedera: recipient: %w", err)
	}

	tx, err := hedera.NewTransferTransaction().
		AddTokenTransfer(token, fromID, -amount).
		AddTokenTransfer(token, toID, amount).
		FreezeWith(s.client)
	if err != nil {
		return "", fmt.Errorf("hedera: freeze transfer: %w", err)
	}

	resp, err := tx.Execute(s.client)
	if err != nil {
		return "", fmt.Errorf("hedera: execute transfer: %w", err)
	}
	txID := resp.TransactionID.String()

	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		return txID, fmt.Errorf("hedera: receipt: %w", err)
	}
	if receipt.Status != hedera.StatusSuccess {
		return txID, fmt.Errorf("%w: status %s", ErrTransferRejected, receipt.Status.String())
	}
	return txID, nil
}

// CreateToken mints a fungible share token with no decimals whose entire
// supply is held by the operator account. It returns the new token ID.
func (s *HederaSubmitter) CreateToken(name, symbol string, supply int64) (string, error) {
	if name == "" || symbol == "" {
		return "", errors.New("hedera: token needs a name and a symbol")
	}
	if supply <= 0 {
		return "", fmt.Errorf("hedera: token supply must be positive, got %d", supply)
	}

	tx, err := hedera.NewTokenCreateTransaction().
		SetTokenName(name).
		SetTokenSymbol(symbol).
		SetTokenType(hedera.TokenTypeFungibleCommon).
		SetDecimals(0).
		SetInitialSupply(uint64(supply)).
		SetTreasuryAccountID(s.operatorID).
		SetAdminKey(s.key.PublicKey()).
		SetSupplyKey(s.key.PublicKey()).
		FreezeWith(s.client)
	if err != nil {
		return "", fmt.Errorf("hedera: freeze token create: %w", err)
	}

	resp, err := tx.Execute(s.client)
	if err != nil {
		return "", fmt.Errorf("hedera: execute token create: %w", err)
	}
	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		return "", fmt.Errorf("hedera: token create receipt: %w", err)
	}
	if receipt.Status != hedera.StatusSuccess {
		return "", fmt.Errorf("%w: status %s", ErrTransferRejected, receipt.Status.String())
	}
	if receipt.TokenID == nil {
		return "", errors.New("hedera: token create receipt has no token id")
	}
	return receipt.TokenID.String(), nil
}

// Close releases the network connections
func (s *HederaSubmitter) Close() error {
	return s.client.Close()
}
