package handlers

import (
	"puja-service/internal/services"
	"puja-service/internal/tasks"
)

// Handler carries the services behind the HTTP routes.
type Handler struct {
	Agents      *services.AgentService
	Tasks       *services.TaskService
	Wallets     *services.WalletService
	Withdrawals *services.WithdrawalService
	Bookings    *services.BookingService
	Panchangam  *services.PanchangamService
	Queue       tasks.Enqueuer
	Auth        *Auth
}
