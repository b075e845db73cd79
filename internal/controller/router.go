package controller

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes регистрирует маршруты планировщика
func SetupRoutes(app *fiber.App, handler *ScheduleHandler) {
	api := app.Group("/api/schedule")

	api.Post("/slots", handler.CreateSlot)
	api.Get("/slots/:id", handler.GetSlot)
	api.Patch("/slots/:id", handler.UpdateSlot)
	api.Delete("/slots/:id", handler.DeactivateSlot)
	api.Post("/slots/:id/approve", handler.ApproveSlot)
	api.Post("/slots/:id/reject", handler.RejectSlot)
	api.Post("/slots/:id/generate", handler.GenerateInstances)
	api.Get("/slots/:id/sessions", handler.ListSessions)

	api.Get("/conflict-check", handler.CheckConflict)
	api.Get("/teachers/:id/slots", handler.ListByTeacher)
	api.Get("/courses/:id/slots", handler.ListByCourse)
	api.Get("/timetable", handler.Timetable)
}
