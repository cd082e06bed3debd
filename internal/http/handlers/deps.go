package handlers

import (
	"mesero/internal/config"
	"mesero/internal/events"
	"mesero/internal/repos"
	"mesero/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	EntryHandler  *EntryHandler
	MenuHandler   *MenuHandler
	CartHandler   *CartHandler
	OrderHandler  *OrderHandler
	QRHandler     *QRHandler
	EventsHandler *EventsHandler
	StaffHandler  *StaffHandler
	AdminHandler  *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, bus events.Bus) *Deps {
	tableRepo := repos.NewTableRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	notifRepo := repos.NewNotificationRepo(db)
	salesRepo := repos.NewSalesRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, notifRepo, bus)
	tableSvc := services.NewTableService(tableRepo, orderRepo, salesRepo, bus)
	notifSvc := services.NewNotificationService(notifRepo)
	statsSvc := services.NewStatsService(salesRepo)

	return &Deps{
		EntryHandler:  &EntryHandler{Tables: tableSvc, Order: orderSvc},
		MenuHandler:   &MenuHandler{Catalog: catalogSvc, Order: orderSvc},
		CartHandler:   &CartHandler{Order: orderSvc, Catalog: catalogSvc},
		OrderHandler:  &OrderHandler{Order: orderSvc, Cfg: cfg},
		QRHandler:     &QRHandler{Cfg: cfg},
		EventsHandler: &EventsHandler{Bus: bus},
		StaffHandler:  &StaffHandler{Notifs: notifSvc, Tables: tableSvc, Order: orderSvc, Cfg: cfg},
		AdminHandler:  &AdminHandler{Catalog: catalogSvc, Tables: tableSvc, Stats: statsSvc},
	}
}
