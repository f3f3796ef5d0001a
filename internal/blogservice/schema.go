package blogservice

import "github.com/sushihentaime/blogpress/internal/crud"

// blogFields is the declarative schema the CRUD engine validates every
// blog write against. Counters and the comment list are never client
// supplied in practice but carry defaults so a full create always
// produces a complete record.
var blogFields = crud.Schema{
	{Name: "title", Validate: crud.StringMax(100), Required: true},
	{Name: "aboutBlog", Validate: crud.StringMax(1000), Required: true},
	{Name: "imageurl", Validate: crud.IsURL, Default: ""},
	{Name: "likes", Validate: crud.IsNumber, Default: 0},
	{Name: "comments", Validate: crud.IsNumber, Default: 0},
	{Name: "allComments", Validate: crud.IsArray, Default: []any{}},
	{Name: crud.OwnerField, Validate: crud.IsID, Required: true},
}

// hiddenFields are internal bookkeeping columns stripped from responses.
var hiddenFields = []string{"version"}
