package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/rosterapi/roster/internal/model"
	"github.com/rosterapi/roster/internal/router"
	"github.com/rosterapi/roster/internal/storage"
)

// StudentHandler serves the student CRUD endpoints. All reads exclude
// soft-deleted rows; delete only ever sets the deletion timestamp.
type StudentHandler struct {
	store    *storage.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewStudentHandler creates a StudentHandler backed by the given store.
func NewStudentHandler(store *storage.Store, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		store:    store,
		validate: newValidator(),
		logger:   logger,
	}
}

// List returns one page of students with pagination metadata.
// GET /students?page=&limit=&search=
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request, _ router.Params) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := clampInt(queryInt(r, "limit", 20), 1, 100)
	search := r.URL.Query().Get("search")

	total, err := h.store.CountStudents(r.Context(), search)
	if err != nil {
		h.logger.Error("count students failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch students")
		return
	}

	students, err := h.store.ListStudents(r.Context(), storage.ListFilter{
		Page:   page,
		Limit:  limit,
		Search: search,
	})
	if err != nil {
		h.logger.Error("list students failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch students")
		return
	}
	if students == nil {
		students = []model.Student{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	writeJSON(w, http.StatusOK, model.StudentListResponse{
		Success: true,
		Data:    students,
		Pagination: model.Pagination{
			CurrentPage: page,
			PerPage:     limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
	})
}

// Get returns a single live student.
// GET /students/{id}
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request, params router.Params) {
	id, ok := studentID(w, params)
	if !ok {
		return
	}

	student, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		h.logger.Error("get student failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch student")
		return
	}

	writeJSON(w, http.StatusOK, model.StudentResponse{Success: true, Data: student})
}

// Create validates the payload and inserts a new student. The duplicate
// email check runs over every row including soft-deleted ones.
// POST /students
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request, _ router.Params) {
	var in model.StudentInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON input")
		return
	}

	if err := h.validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	exists, err := h.store.EmailExists(r.Context(), in.Email)
	if err != nil {
		h.logger.Error("email check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}

	id, err := h.store.CreateStudent(r.Context(), &in)
	if err != nil {
		h.logger.Error("create student failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}

	writeJSON(w, http.StatusCreated, model.CreatedResponse{
		Success: true,
		Message: "Student created successfully",
		Data:    model.CreatedRef{ID: id},
	})
}

// Update overwrites every field of a live student. Partial updates are not
// supported; omitted fields are written as their zero values.
// PUT /students/{id}
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request, params router.Params) {
	id, ok := studentID(w, params)
	if !ok {
		return
	}

	if _, err := h.store.GetStudent(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		h.logger.Error("get student failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update student")
		return
	}

	var in model.StudentInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON input")
		return
	}

	if in.Email != "" {
		if err := h.validate.Var(in.Email, "email"); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid email format")
			return
		}
	}

	if err := h.store.UpdateStudent(r.Context(), id, &in); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		h.logger.Error("update student failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update student")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Success: true,
		Message: "Student updated successfully",
	})
}

// Delete soft-deletes a live student.
// DELETE /students/{id}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request, params router.Params) {
	id, ok := studentID(w, params)
	if !ok {
		return
	}

	if err := h.store.SoftDeleteStudent(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		h.logger.Error("delete student failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete student")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Success: true,
		Message: "Student deleted successfully",
	})
}

// studentID parses the positional id parameter, writing a 400 when it is
// missing or not numeric.
func studentID(w http.ResponseWriter, params router.Params) (int64, bool) {
	if len(params) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid student ID")
		return 0, false
	}
	id, err := strconv.ParseInt(params[0], 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "Invalid student ID")
		return 0, false
	}
	return id, true
}
