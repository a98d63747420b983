package commands

import (
	"github.com/goliatone/go-neushop/components/console"
)

// Executor bundles every console command and query so transports depend on
// one value.
type Executor struct {
	Login           *LoginCommand
	Register        *RegisterCommand
	Logout          *LogoutCommand
	ShowForm        *ShowFormCommand
	LoadPanel       *LoadPanelCommand
	CreateRecord    *CreateRecordCommand
	StartEdit       *StartEditCommand
	CancelEdit      *CancelEditCommand
	SaveEdit        *SaveEditCommand
	DeleteRecord    *DeleteRecordCommand
	RunWidget       *RunWidgetCommand
	SavePreferences *SavePreferencesCommand
	View            *ConsoleViewQuery
	Panel           *PanelViewQuery
	Widget          *WidgetStateQuery
}

// NewExecutor wires every command to service.
func NewExecutor(service *console.Service, telemetry Telemetry) *Executor {
	return &Executor{
		Login:           NewLoginCommand(service, telemetry),
		Register:        NewRegisterCommand(service, telemetry),
		Logout:          NewLogoutCommand(service, telemetry),
		ShowForm:        NewShowFormCommand(service),
		LoadPanel:       NewLoadPanelCommand(service, telemetry),
		CreateRecord:    NewCreateRecordCommand(service, telemetry),
		StartEdit:       NewStartEditCommand(service),
		CancelEdit:      NewCancelEditCommand(service),
		SaveEdit:        NewSaveEditCommand(service, telemetry),
		DeleteRecord:    NewDeleteRecordCommand(service, telemetry),
		RunWidget:       NewRunWidgetCommand(service, telemetry),
		SavePreferences: NewSavePreferencesCommand(service),
		View:            NewConsoleViewQuery(service),
		Panel:           NewPanelViewQuery(service),
		Widget:          NewWidgetStateQuery(service),
	}
}
