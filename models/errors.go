package models

import "errors"

var ErrLedgerImmutable = errors.New("points ledger rows cannot be modified")
