package models

// All lists every model migrated by the service.
func All() []interface{} {
	return []interface{}{
		&Agent{},
		&BookingHistory{},
		&AssignedTask{},
		&Wallet{},
		&WithdrawalRequest{},
		&CommissionHistory{},
		&PanchangamEntry{},
		&CallbackLog{},
	}
}
