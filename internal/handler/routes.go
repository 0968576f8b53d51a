package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Photos   *PhotoHandler
	Comments *CommentHandler
	Tags     *TagHandler
	Families *FamilyHandler
	Profiles *ProfileHandler
	Changes  *ChangesHandler
}

// RegisterRoutes mounts the authenticated API on r. auth runs before every
// route.
func RegisterRoutes(r fiber.Router, auth fiber.Handler, h Handlers) {
	r.Use(auth)

	photos := r.Group("/photos")
	photos.Post("/", h.Photos.UploadDailyPhoto)
	photos.Get("/", h.Photos.ListPhotos)
	photos.Get("/:id", h.Photos.GetPhoto)
	photos.Patch("/:id", h.Photos.UpdatePhoto)
	photos.Delete("/:id", h.Photos.DeletePhoto)

	comments := r.Group("/comments")
	comments.Get("/", h.Comments.ListComments)
	comments.Post("/", h.Comments.CreateComment)
	comments.Patch("/", h.Comments.UpdateComment)
	comments.Delete("/", h.Comments.DeleteComment)

	tags := r.Group("/tags")
	tags.Get("/", h.Tags.ListTags)
	tags.Post("/", h.Tags.CreateTag)
	tags.Delete("/", h.Tags.DeleteTag)

	family := r.Group("/family")
	family.Get("/", h.Families.GetFamily)
	family.Patch("/", h.Families.UpdateFamily)
	family.Patch("/members/:user_id", h.Families.UpdateMember)

	profile := r.Group("/profile")
	profile.Get("/", h.Profiles.GetMyProfile)
	profile.Put("/avatar", h.Profiles.UploadAvatar)

	r.Get("/changes", h.Changes.Stream)
}
