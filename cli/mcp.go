// ABOUTME: MCP server subcommand
// ABOUTME: Exposes appointments, sync, and notifications as MCP tools on stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shadecal/handlers"
)

const mcpVersion = "0.1.0"

// NewMCPServer registers every tool and resource against env.
func NewMCPServer(env *Env) *mcp.Server {
	appointmentHandlers := handlers.NewAppointmentHandlers(env.Store)
	syncHandlers := handlers.NewSyncHandlers(env.Engine(), env.Store)
	notificationHandlers := handlers.NewNotificationHandlers(env.Store)
	resourceHandlers := handlers.NewResourceHandlers(env.Store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "shadecal",
		Version: mcpVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_appointments",
		Description: "List a user's appointments, optionally limited to the next N days",
	}, appointmentHandlers.ListAppointments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_calendar",
		Description: "Pull events from the calendar provider and/or push local appointments to it",
	}, syncHandlers.SyncCalendar)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "integration_status",
		Description: "Show a user's linked calendars with their sync status and last error",
	}, syncHandlers.IntegrationStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notifications",
		Description: "List a user's calendar notifications, newest first",
	}, notificationHandlers.ListNotifications)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_notification_read",
		Description: "Mark a notification as read",
	}, notificationHandlers.MarkNotificationRead)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "appointments",
		URITemplate: handlers.AppointmentsTemplate,
		MIMEType:    "application/json",
		Description: "A user's appointment book",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "calendar",
		URITemplate: handlers.CalendarTemplate,
		MIMEType:    "text/calendar",
		Description: "A user's appointment book as an iCalendar feed",
	}, resourceHandlers.ReadResource)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(env *Env, args []string) error {
	env.Logger.Info("starting shadecal MCP server")
	return NewMCPServer(env).Run(context.Background(), &mcp.StdioTransport{})
}
