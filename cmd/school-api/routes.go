package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/handler"
	"github.com/noah-isme/school-mgmt-api/internal/middleware"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/config"
)

type handlers struct {
	auth        *handler.AuthHandler
	classes     *handler.ClassHandler
	subjects    *handler.SubjectHandler
	teachers    *handler.TeacherHandler
	students    *handler.StudentHandler
	parents     *handler.ParentHandler
	fees        *handler.FeeHandler
	library     *handler.LibraryHandler
	assignments *handler.AssignmentHandler
	messages    *handler.MessageHandler
	events      *handler.EventHandler
	notices     *handler.NoticeHandler
	timetables  *handler.TimetableHandler
	reports     *handler.ReportHandler
	settings    *handler.SettingsHandler
	cascades    *handler.CascadeHandler
	exports     *handler.ExportHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers, tokens middleware.TokenValidator, audit middleware.AuditRecorder, logr *zap.Logger) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	scope := middleware.SchoolScope()
	audited := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(audit, logr, action, resource)
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/admins/register", h.auth.RegisterAdmin)
	api.POST("/auth/login", h.auth.Login)
	api.POST("/auth/students/login", h.auth.StudentLogin)
	api.GET("/exports/download", h.exports.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(tokens))

	authed.GET("/auth/me", h.auth.Me)
	authed.GET("/admins/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.auth.GetAdmin)

	schools := authed.Group("/schools/:schoolId", scope)
	{
		schools.GET("/classes", h.classes.List)
		schools.DELETE("/classes", admin, audited("DELETE_ALL", "class"), h.classes.DeleteBySchool)
		schools.GET("/subjects", h.subjects.List)
		schools.DELETE("/subjects", admin, audited("DELETE_ALL", "subject"), h.subjects.DeleteBySchool)
		schools.GET("/teachers", h.teachers.List)
		schools.DELETE("/teachers", admin, audited("DELETE_ALL", "teacher"), h.teachers.DeleteBySchool)
		schools.GET("/students", h.students.List)
		schools.DELETE("/students", admin, audited("DELETE_ALL", "student"), h.students.DeleteBySchool)
		schools.DELETE("/attendance", admin, audited("CLEAR_ATTENDANCE", "student"), h.students.ClearSchoolAttendance)
		schools.GET("/parents", admin, h.parents.List)
		schools.GET("/fees/summary", admin, h.fees.Summary)
		schools.GET("/fees/report", admin, h.fees.Report)
		schools.POST("/fees/report/export", admin, h.fees.ExportReport)
		schools.GET("/books", h.library.ListBooks)
		schools.GET("/books/search", h.library.SearchBooks)
		schools.GET("/borrows", admin, h.library.SchoolBorrows)
		schools.GET("/borrows/overdue", admin, h.library.Overdue)
		schools.GET("/library/stats", admin, h.library.Stats)
		schools.GET("/events", h.events.List)
		schools.GET("/events/upcoming", h.events.Upcoming)
		schools.GET("/notices", h.notices.List)
		schools.DELETE("/notices", admin, h.notices.DeleteBySchool)
		schools.GET("/complaints", admin, h.notices.ListComplaints)
		schools.GET("/timetables", h.timetables.List)
	}

	classes := authed.Group("/classes")
	{
		classes.POST("", admin, h.classes.Create)
		classes.GET("/:id", h.classes.Get)
		classes.GET("/:id/students", h.classes.Students)
		classes.GET("/:id/subjects", h.classes.Subjects)
		classes.GET("/:id/free-subjects", h.classes.FreeSubjects)
		classes.GET("/:id/fees", admin, h.fees.ListByClass)
		classes.GET("/:id/assignments", h.assignments.ListByClass)
		classes.GET("/:id/timetable", h.timetables.ForClass)
		classes.GET("/:id/report-cards", staff, h.reports.ClassReports)
		classes.POST("/:id/report-cards/export", staff, h.reports.ExportClassReports)
		classes.DELETE("/:id", admin, audited("DELETE", "class"), h.classes.Delete)
		classes.DELETE("/:id/subjects", admin, audited("DELETE_BY_CLASS", "subject"), h.subjects.DeleteByClass)
		classes.DELETE("/:id/teachers", admin, audited("DELETE_BY_CLASS", "teacher"), h.teachers.DeleteByClass)
		classes.DELETE("/:id/students", admin, audited("DELETE_BY_CLASS", "student"), h.students.DeleteByClass)
	}

	subjects := authed.Group("/subjects")
	{
		subjects.POST("", admin, h.subjects.Create)
		subjects.GET("/:id", h.subjects.Get)
		subjects.GET("/:id/assignments", h.assignments.ListBySubject)
		subjects.DELETE("/:id", admin, audited("DELETE", "subject"), h.subjects.Delete)
		subjects.DELETE("/:id/attendance", admin, h.students.ClearSubjectAttendance)
	}

	teachers := authed.Group("/teachers")
	{
		teachers.POST("", admin, audited("CREATE", "teacher"), h.teachers.Register)
		teachers.GET("/:id", h.teachers.Get)
		teachers.GET("/:id/assignments", h.assignments.ListByTeacher)
		teachers.GET("/:id/timetable", h.timetables.ForTeacher)
		teachers.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.teachers.Update)
		teachers.PUT("/:id/subject", admin, audited("CHANGE_SUBJECT", "teacher"), h.teachers.ChangeSubject)
		teachers.POST("/:id/attendance", admin, h.teachers.MarkAttendance)
		teachers.DELETE("/:id", admin, audited("DELETE", "teacher"), h.teachers.Delete)
	}

	students := authed.Group("/students")
	{
		students.POST("", admin, h.students.Register)
		students.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.Self), h.students.Get)
		students.GET("/:id/fees", h.fees.ListByStudent)
		students.GET("/:id/assignments", h.assignments.ListForStudent)
		students.GET("/:id/report-card", h.reports.StudentReport)
		students.PUT("/:id", admin, h.students.Update)
		students.PUT("/:id/exam-results", staff, h.students.UpsertExamResult)
		students.PUT("/:id/attendance", staff, h.students.MarkAttendance)
		students.DELETE("/:id/attendance", admin, h.students.ClearAttendance)
		students.DELETE("/:id/attendance/:subjectId", staff, h.students.RemoveSubjectAttendance)
		students.DELETE("/:id", admin, audited("DELETE", "student"), h.students.Delete)
	}

	parents := authed.Group("/parents")
	{
		parents.POST("", admin, h.parents.Register)
		parents.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.parents.Get)
		parents.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.parents.Update)
		parents.POST("/:id/children", admin, audited("LINK_CHILD", "parent"), h.parents.LinkChild)
		parents.DELETE("/:id", admin, audited("DELETE", "parent"), h.parents.Delete)
	}

	fees := authed.Group("/fees", admin)
	{
		fees.POST("", h.fees.Create)
		fees.POST("/:id/payments", audited("PAYMENT", "fee"), h.fees.AddPayment)
		fees.POST("/:id/discount", audited("DISCOUNT", "fee"), h.fees.ApplyDiscount)
		fees.PUT("/:id", h.fees.Update)
		fees.DELETE("/:id", audited("DELETE", "fee"), h.fees.Delete)
	}

	books := authed.Group("/books")
	{
		books.POST("", admin, h.library.AddBook)
		books.GET("/:id", h.library.GetBook)
		books.PUT("/:id", admin, h.library.UpdateBook)
		books.DELETE("/:id", admin, h.library.DeleteBook)
	}

	borrows := authed.Group("/borrows")
	{
		borrows.POST("", admin, h.library.Issue)
		borrows.GET("/mine", h.library.MyBorrows)
		borrows.POST("/:id/return", admin, h.library.Return)
		borrows.POST("/:id/fine/pay", audited("FINE_PAYMENT", "borrow"), h.library.PayFine)
	}

	assignments := authed.Group("/assignments")
	{
		assignments.POST("", staff, h.assignments.Create)
		assignments.GET("/:id", h.assignments.Get)
		assignments.PUT("/:id", staff, h.assignments.Update)
		assignments.DELETE("/:id", staff, h.assignments.Delete)
		assignments.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), h.assignments.Submit)
		assignments.PUT("/:id/submissions/:studentId/grade", staff, h.assignments.Grade)
	}

	messages := authed.Group("/messages")
	{
		messages.POST("", h.messages.Send)
		messages.GET("/inbox", h.messages.Inbox)
		messages.GET("/sent", h.messages.Sent)
		messages.GET("/unread-count", h.messages.UnreadCount)
		messages.GET("/conversation", h.messages.Conversation)
		messages.POST("/bulk-delete", h.messages.BulkDelete)
		messages.GET("/:id", h.messages.Get)
		messages.PUT("/:id/read", h.messages.MarkRead)
		messages.POST("/:id/reply", h.messages.Reply)
		messages.DELETE("/:id", h.messages.Delete)
	}

	events := authed.Group("/events")
	{
		events.POST("", staff, h.events.Create)
		events.GET("/mine", h.events.Mine)
		events.GET("/:id", h.events.Get)
		events.PUT("/:id", staff, h.events.Update)
		events.PUT("/:id/cancel", staff, h.events.Cancel)
		events.DELETE("/:id", admin, h.events.Delete)
	}

	notices := authed.Group("/notices", admin)
	{
		notices.POST("", h.notices.Create)
		notices.PUT("/:id", h.notices.Update)
		notices.DELETE("/:id", h.notices.Delete)
	}
	authed.POST("/complaints", h.notices.CreateComplaint)

	timetables := authed.Group("/timetables")
	{
		timetables.POST("", admin, h.timetables.Create)
		timetables.GET("/:id", h.timetables.Get)
		timetables.PUT("/:id", admin, h.timetables.Update)
		timetables.DELETE("/:id", admin, h.timetables.Delete)
	}

	me := authed.Group("/me")
	{
		me.PUT("/profile", h.settings.UpdateProfile)
		me.POST("/password", h.auth.ChangePassword)
		me.PUT("/preferences", h.settings.UpdatePreferences)
		me.GET("/notifications", h.settings.Notifications)
		me.PUT("/notifications/:notificationId/read", h.settings.MarkNotificationRead)
		me.DELETE("/notifications", h.settings.ClearNotifications)
	}
	authed.POST("/notifications", staff, h.settings.SendNotification)

	cascades := authed.Group("/cascades", admin)
	{
		cascades.GET("", h.cascades.Journal)
		cascades.POST("/reconcile", audited("RECONCILE", "cascade"), h.cascades.Reconcile)
	}
}
