package transaction

import (
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Create builds, signs and identifies a new transaction of the given type.
// The fee comes from the handler, never the caller.
func (e *Engine) Create(txType uint8, data *CreateData) (*types.Transaction, error) {
	handler, err := e.registry.Get(txType)
	if err != nil {
		return nil, err
	}
	if data.Sender == nil {
		return nil, txerror.New(txerror.CodeMissingSender, "missing sender account")
	}

	trs := &types.Transaction{
		Type:            txType,
		Timestamp:       e.cal.TimestampNow(),
		SenderPublicKey: data.Keypair.PublicKeyHex(),
		SenderID:        data.Sender.Address,
		RecipientID:     data.RecipientID,
		Amount:          data.Amount,
	}
	if data.Requester != nil {
		trs.RequesterPublicKey = data.Requester.PublicKey
	}

	if err := handler.Create(trs, data); err != nil {
		return nil, err
	}

	trs.Fee = handler.CalculateFee(trs, data.Sender)

	if trs.Signature, err = e.Sign(data.Keypair, trs); err != nil {
		return nil, err
	}
	if data.SecondKeypair != nil {
		if trs.SignSignature, err = e.Sign(*data.SecondKeypair, trs); err != nil {
			return nil, err
		}
	}
	if trs.ID, err = e.GetID(trs); err != nil {
		return nil, err
	}
	return trs, nil
}
