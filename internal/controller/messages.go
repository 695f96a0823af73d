package controller

// User-facing messages.
const (
	MsgInvalidAmount   = "Veuillez entrer un montant valide (ex: 120.50)"
	MsgAmountTooLarge  = "Le montant ne peut pas dépasser 1 000 000 €"
	MsgInvalidLabel    = "Caractère non autorisé dans la sélection !"
	MsgNegativeBalance = "⚠️ Attention : votre solde est négatif !"
	MsgConfirmReset    = "Voulez-vous vraiment tout réinitialiser ?"
)
