package invoice

import "errors"

// Sentinel errors for the invoice service layer.
var (
	ErrNotFound = errors.New("invoice not found")
)

// Messages returned to the calling form. They are part of the public
// contract and must not change wording.
const (
	MsgCreateFailed  = "Database Error: Failed to create invoice"
	MsgUpdateFailed  = "Database Error: Failed to update invoice"
	MsgDeleteFailed  = "Database Error: Failed to delete invoice"
	MsgDeleted       = "Deleted invoice"
	MsgCreateInvalid = "Missing Fields. Failed to Create Invoice."
	MsgUpdateInvalid = "Missing Fields. Failed to Update Invoice."

	MsgCustomerRequired = "Please select a customer."
	MsgAmountInvalid    = "Please enter an amount greater than $0."
	MsgStatusInvalid    = "Please select an invoice status."
)
