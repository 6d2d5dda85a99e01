package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// transactionsResponse is the body of GET /api/v1/transactions. Records are
// kept raw so one malformed entry does not fail the whole page.
type transactionsResponse struct {
	Transactions []json.RawMessage `json:"transactions"`
	Links        struct {
		Next *string `json:"next"`
	} `json:"links"`
}

type mirrorTransaction struct {
	TransactionID      string                `json:"transaction_id"`
	ConsensusTimestamp string                `json:"consensus_timestamp"`
	Result             string                `json:"result"`
	Name               string                `json:"name"`
	TokenTransfers     []mirrorTokenTransfer `json:"token_transfers"`
}

type mirrorTokenTransfer struct {
	TokenID    string `json:"token_id"`
	Account    string `json:"account"`
	Amount     *int64 `json:"amount"`
	IsApproval bool   `json:"is_approval"`
}

// tokenBalancesResponse is the body of GET /api/v1/accounts/{id}/tokens
type tokenBalancesResponse struct {
	Tokens []struct {
		TokenID  string `json:"token_id"`
		Balance  int64  `json:"balance"`
		Decimals int    `json:"decimals"`
	} `json:"tokens"`
}

// parseConsensusTimestamp converts "seconds.nanoseconds" into a time.
func parseConsensusTimestamp(ts string) (time.Time, error) {
	secPart, nanoPart, found := strings.Cut(ts, ".")
	if secPart == "" {
		return time.Time{}, fmt.Errorf("empty consensus timestamp")
	}
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("consensus timestamp %q: %w", ts, err)
	}

	var nanos int64
	if found {
		if len(nanoPart) == 0 || len(nanoPart) > 9 {
			return time.Time{}, fmt.Errorf("consensus timestamp %q: bad fraction", ts)
		}
		nanos, err = strconv.ParseInt(nanoPart+strings.Repeat("0", 9-len(nanoPart)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("consensus timestamp %q: %w", ts, err)
		}
	}
	return time.Unix(sec, nanos).UTC(), nil
}
