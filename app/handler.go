package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogpress/internal/blogservice"
	"github.com/sushihentaime/blogpress/internal/common"
	"github.com/sushihentaime/blogpress/internal/crud"
	"github.com/sushihentaime/blogpress/internal/userservice"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input crud.Record

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	tokens, err := app.userService.RegisterUser(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrDuplicateEmail), errors.Is(err, userservice.ErrDuplicateUsername):
			app.writeErrorResponse(w, r, http.StatusBadRequest, "User already exists", nil)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.writeSuccess(w, r, http.StatusCreated, "User created successfully", tokens)
}

type loginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	tokens, err := app.userService.LoginUser(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r, "Invalid email or user does not exist")
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.unauthorizedErrorResponse(w, r, "Invalid password")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Login successful", tokens)
}

func (app *application) listBlogsHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	page, err := app.readPageParam(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.ListBlogs(r.Context(), identity.ID, page)
	if err != nil {
		app.blogErrorResponse(w, r, err, "no blogs found")
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Blogs retrieved successfully", blogs)
}

func (app *application) ghostBlogsHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	page, err := app.readPageParam(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.GhostBlogs(r.Context(), identity.ID, page)
	if err != nil {
		app.blogErrorResponse(w, r, err, "no blogs found")
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Blogs retrieved successfully", blogs)
}

const maxUploadSize = 10 << 20

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.writeErrorResponse(w, r, http.StatusBadRequest, "No file provided", nil)
		return
	}
	defer file.Close()

	imageurl, err := app.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	input := crud.Record{}
	for key := range r.MultipartForm.Value {
		input[key] = r.FormValue(key)
	}

	blog, err := app.blogService.CreateBlog(r.Context(), identity.ID, input, imageurl)
	if err != nil {
		// the blog was never created, so the uploaded image is orphaned
		if err := app.uploader.Delete(r.Context(), imageurl); err != nil {
			app.logError(r, err)
		}
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	app.writeSuccess(w, r, http.StatusCreated, "Blog created successfully", blog)
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.GetBlogByID(r.Context(), identity.ID, id)
	if err != nil {
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Blog retrieved successfully", blog)
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input crud.Record
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), identity.ID, id, input)
	if err != nil {
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Blog updated successfully", blog)
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.DeleteBlog(r.Context(), identity.ID, id)
	if err != nil {
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	// best effort cleanup of the stored cover image
	if imageurl, ok := blog["imageurl"].(string); ok && imageurl != "" {
		if err := app.uploader.Delete(r.Context(), imageurl); err != nil {
			app.logError(r, err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) likeBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	already, err := app.blogService.LikeBlog(r.Context(), identity.ID, id)
	if err != nil {
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	if already {
		app.writeSuccess(w, r, http.StatusOK, "Blog already liked", nil)
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Blog liked successfully", nil)
}

type commentBlogRequest struct {
	Comment string `json:"comment"`
}

func (app *application) commentBlogHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.getIdentityContext(r)

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentBlogRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.blogService.CommentBlog(r.Context(), identity.ID, id, input.Comment)
	if err != nil {
		app.blogErrorResponse(w, r, err, "blog does not exist")
		return
	}

	app.writeSuccess(w, r, http.StatusOK, "Comment added successfully", nil)
}

// blogErrorResponse maps blog service failures to responses. notFoundMsg
// is the message used when the target record is missing, which differs
// between the list and single-resource endpoints.
func (app *application) blogErrorResponse(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, blogservice.ErrUserNotFound), errors.Is(err, blogservice.ErrUserForeignKey):
		app.notFoundErrorResponse(w, r, "user does not exist")
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r, notFoundMsg)
	case errors.Is(err, common.ErrNotOwner):
		app.forbiddenErrorResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
