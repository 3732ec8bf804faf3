package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/appointment"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/auth"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/directory"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/profile"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/scheduling"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newApp() *fiber.App {
	return fiber.New(fiber.Config{StructValidator: validation.Fiber{}})
}

func withClaims(userID uuid.UUID, role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals(token.CtxKeyClaims, &token.Claims{
			Type:      token.TokenTypeAccess,
			UserID:    userID,
			SessionID: uuid.New(),
			Role:      role,
		})
		return c.Next()
	}
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

type fakeAuth struct {
	auth.Service
	sendErr  error
	verified auth.VerifyOTPRequest
}

func (f *fakeAuth) SendOTP(_ context.Context, req auth.SendOTPRequest) (*auth.OTPDispatch, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &auth.OTPDispatch{Phone: "+919876543210", ExpiresIn: 300, IsNewUser: true}, nil
}

func (f *fakeAuth) VerifyOTP(_ context.Context, req auth.VerifyOTPRequest) (*auth.LoginResult, error) {
	f.verified = req
	return &auth.LoginResult{
		Tokens:    auth.Tokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
		User:      &repo.User{ID: uuid.New(), Role: repo.RolePatient},
		SessionID: uuid.New(),
	}, nil
}

func authApp(f *fakeAuth) *fiber.App {
	app := newApp()
	h := NewAuthHandler(f)
	app.Post("/auth/otp/send", h.SendOTP)
	app.Post("/auth/otp/verify", h.VerifyOTP)
	return app
}

func TestSendOTP(t *testing.T) {
	status, body := do(t, authApp(&fakeAuth{}), http.MethodPost, "/auth/otp/send", `{"phone":"9876543210","role":"patient"}`)

	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "+919876543210", data["phone"])
	assert.Equal(t, true, data["is_new_user"])
}

func TestSendOTPErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrOTPCooldown, http.StatusTooManyRequests},
		{auth.ErrInvalidPhone, http.StatusBadRequest},
		{auth.ErrRoleMismatch, http.StatusConflict},
		{auth.ErrAccountBlocked, http.StatusForbidden},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, body := do(t, authApp(&fakeAuth{sendErr: tt.err}), http.MethodPost, "/auth/otp/send", `{"phone":"1","role":"patient"}`)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSendOTPRequiresPhone(t *testing.T) {
	status, _ := do(t, authApp(&fakeAuth{}), http.MethodPost, "/auth/otp/send", `{"role":"patient"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthBodyRules(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"send without phone", "/auth/otp/send", `{"role":"nurse"}`, "phone is required; role must be one of patient, doctor, hospital"},
		{"verify letters in code", "/auth/otp/verify", `{"phone":"9876543210","code":"12ab","role":"patient","device_id":"d"}`, "code must contain digits only"},
		{"verify long device name", "/auth/otp/verify", `{"phone":"9876543210","code":"1234","role":"patient","device_id":"d","device_name":"` + strings.Repeat("n", 121) + `"}`, "device_name must be at most 120 characters"},
		{"malformed", "/auth/otp/send", `{"phone":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAuth{}
			status, body := do(t, authApp(f), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body["error"])
			assert.Empty(t, f.verified.Phone)
		})
	}
}

func TestVerifyOTPPassesDevice(t *testing.T) {
	f := &fakeAuth{}
	status, body := do(t, authApp(f), http.MethodPost, "/auth/otp/verify",
		`{"phone":"9876543210","code":"123456","role":"patient","device_id":"dev-1","device_type":"android"}`)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dev-1", f.verified.Device.ID)
	assert.Equal(t, "android", f.verified.Device.Type)
	assert.Equal(t, "a", body["data"].(map[string]any)["access_token"])
}

func TestVerifyOTPDeviceHeaderFallback(t *testing.T) {
	f := &fakeAuth{}
	app := newApp()
	app.Use(middleware.RequestID())
	app.Post("/auth/otp/verify", NewAuthHandler(f).VerifyOTP)

	req := httptest.NewRequest(http.MethodPost, "/auth/otp/verify",
		strings.NewReader(`{"phone":"9876543210","code":"123456","role":"patient"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderDeviceID, "dev-header")

	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dev-header", f.verified.Device.ID)
}

func TestVerifyOTPRequiresDevice(t *testing.T) {
	status, _ := do(t, authApp(&fakeAuth{}), http.MethodPost, "/auth/otp/verify", `{"phone":"1","code":"2"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

// ---------------------------------------------------------------------------
// profile
// ---------------------------------------------------------------------------

type fakeProfile struct {
	profile.Service
	section string
	patient *profile.PatientInput
	err     error
}

func (f *fakeProfile) UpsertPatientProfile(_ context.Context, id uuid.UUID, in profile.PatientInput) (*repo.PatientProfile, error) {
	f.patient = &in
	return &repo.PatientProfile{UserID: id, FullName: in.FullName}, nil
}

func (f *fakeProfile) GetDoctorProfile(_ context.Context, id uuid.UUID) (*repo.DoctorProfile, error) {
	return &repo.DoctorProfile{UserID: id}, nil
}

func (f *fakeProfile) SubmitDoctorSection(_ context.Context, id uuid.UUID, section string, _ profile.DoctorSection) (*repo.DoctorProfile, error) {
	f.section = section
	if f.err != nil {
		return nil, f.err
	}
	return &repo.DoctorProfile{UserID: id}, nil
}

func TestProfileDispatchesByRole(t *testing.T) {
	uid := uuid.New()
	f := &fakeProfile{}

	app := newApp()
	h := NewProfileHandler(f)
	app.Get("/profile", withClaims(uid, repo.RoleDoctor), h.Get)
	app.Get("/admin-profile", withClaims(uid, repo.RoleAdmin), h.Get)

	status, _ := do(t, app, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodGet, "/admin-profile", "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSubmitSectionOutOfOrder(t *testing.T) {
	f := &fakeProfile{err: profile.ErrStepOutOfOrder}

	app := newApp()
	app.Put("/profile/sections/:section", withClaims(uuid.New(), repo.RoleDoctor), NewProfileHandler(f).SubmitSection)

	status, _ := do(t, app, http.MethodPut, "/profile/sections/c", `{"bio":"x"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "c", f.section)
}

func TestUpsertPatientRejectsDoctors(t *testing.T) {
	app := newApp()
	app.Put("/profile", withClaims(uuid.New(), repo.RoleDoctor), NewProfileHandler(&fakeProfile{}).UpsertPatient)

	status, _ := do(t, app, http.MethodPut, "/profile", `{"full_name":"A"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUpsertPatientBodyRules(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"gender", `{"gender":"robot"}`, "gender must be one of male, female, other"},
		{"date", `{"date_of_birth":"1990/01/01"}`, "date_of_birth must match 2006-01-02"},
		{"future date", `{"date_of_birth":"2999-01-01"}`, "date_of_birth must be a date in the past"},
		{"blood group", `{"blood_group":"C+"}`, "blood_group must be one of A+, A-, B+, B-, AB+, AB-, O+, O-"},
		{"city", `{"city_id":"pune"}`, "city_id is not a valid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeProfile{}
			app := newApp()
			app.Put("/profile", withClaims(uuid.New(), repo.RolePatient), NewProfileHandler(f).UpsertPatient)

			status, body := do(t, app, http.MethodPut, "/profile", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body["error"])
			assert.Nil(t, f.patient)
		})
	}

	f := &fakeProfile{}
	app := newApp()
	app.Put("/profile", withClaims(uuid.New(), repo.RolePatient), NewProfileHandler(f).UpsertPatient)
	status, _ := do(t, app, http.MethodPut, "/profile", `{"full_name":"Ravi","gender":"Male","blood_group":"o+"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Male", f.patient.Gender)
}

// ---------------------------------------------------------------------------
// appointment
// ---------------------------------------------------------------------------

type fakeAppointments struct {
	appointment.Service
	booked   appointment.BookRequest
	bookErr  error
	listedBy string
}

func (f *fakeAppointments) Book(_ context.Context, patientID uuid.UUID, req appointment.BookRequest) (*repo.Appointment, error) {
	f.booked = req
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &repo.Appointment{ID: uuid.New(), PatientID: patientID, Status: repo.AppointmentBooked}, nil
}

func (f *fakeAppointments) ListForPatient(_ context.Context, _ uuid.UUID, q appointment.ListQuery) (pagination.Response[repo.Appointment], error) {
	f.listedBy = repo.RolePatient
	return pagination.NewResponse[repo.Appointment](nil, 0, q.Page), nil
}

func (f *fakeAppointments) ListAll(_ context.Context, q appointment.ListQuery) (pagination.Response[repo.Appointment], error) {
	f.listedBy = repo.RoleAdmin
	return pagination.NewResponse[repo.Appointment](nil, 0, q.Page), nil
}

func appointmentApp(f *fakeAppointments, role string) *fiber.App {
	app := newApp()
	h := NewAppointmentHandler(f)
	app.Use(withClaims(uuid.New(), role))
	app.Post("/appointments", h.Book)
	app.Get("/appointments", h.List)
	return app
}

func TestBookAppointment(t *testing.T) {
	f := &fakeAppointments{}
	doctorID, estID := uuid.New(), uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	body := `{"doctor_id":"` + doctorID.String() + `","establishment_id":"` + estID.String() + `","start_time":"` + start.Format(time.RFC3339) + `"}`
	status, _ := do(t, appointmentApp(f, repo.RolePatient), http.MethodPost, "/appointments", body)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, doctorID, f.booked.DoctorID)
	assert.Equal(t, estID, f.booked.EstablishmentID)
	assert.True(t, f.booked.StartTime.Equal(start))
}

func TestBookAppointmentValidation(t *testing.T) {
	status, _ := do(t, appointmentApp(&fakeAppointments{}, repo.RolePatient), http.MethodPost, "/appointments", `{"doctor_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBookAppointmentBodyRules(t *testing.T) {
	f := &fakeAppointments{}
	body := `{"doctor_id":"` + uuid.NewString() + `","establishment_id":"` + uuid.NewString() + `","reason":"` + strings.Repeat("r", 501) + `"}`

	status, resp := do(t, appointmentApp(f, repo.RolePatient), http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "start_time is required; reason must be at most 500 characters", resp["error"])
	assert.Equal(t, uuid.Nil, f.booked.DoctorID)
}

func TestBookAppointmentSlotTaken(t *testing.T) {
	f := &fakeAppointments{bookErr: appointment.ErrSlotNotAvailable}
	body := `{"doctor_id":"` + uuid.NewString() + `","establishment_id":"` + uuid.NewString() + `","start_time":"2026-03-02T10:00:00Z"}`

	status, resp := do(t, appointmentApp(f, repo.RolePatient), http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, appointment.ErrSlotNotAvailable.Error(), resp["error"])
}

func TestListAppointmentsScopesByRole(t *testing.T) {
	f := &fakeAppointments{}
	status, body := do(t, appointmentApp(f, repo.RolePatient), http.MethodGet, "/appointments?page=2&limit=5", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, repo.RolePatient, f.listedBy)
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(5), body["limit"])

	status, _ = do(t, appointmentApp(f, repo.RoleAdmin), http.MethodGet, "/appointments", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, repo.RoleAdmin, f.listedBy)
}

func TestListAppointmentsRejectsBadDates(t *testing.T) {
	status, _ := do(t, appointmentApp(&fakeAppointments{}, repo.RolePatient), http.MethodGet, "/appointments?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

// ---------------------------------------------------------------------------
// directory
// ---------------------------------------------------------------------------

type fakeDirectory struct {
	directory.Service
	query directory.SearchQuery
}

func (f *fakeDirectory) SearchDoctors(_ context.Context, q directory.SearchQuery) (pagination.Response[repo.DoctorProfile], error) {
	f.query = q
	return pagination.NewResponse([]repo.DoctorProfile{{UserID: uuid.New()}}, 1, q.Page), nil
}

func (f *fakeDirectory) GetDoctor(context.Context, uuid.UUID) (*directory.DoctorDetail, error) {
	return nil, directory.ErrDoctorNotFound
}

type fakeSlots struct {
	scheduling.Service
	err error
}

func (f *fakeSlots) AvailableSlots(context.Context, uuid.UUID, *uuid.UUID, string) ([]scheduling.Slot, error) {
	return nil, f.err
}

func directoryApp(d *fakeDirectory, s *fakeSlots) *fiber.App {
	app := newApp()
	h := NewDirectoryHandler(d, s)
	app.Get("/doctors", h.SearchDoctors)
	app.Get("/doctors/:id", h.GetDoctor)
	app.Get("/doctors/:id/slots", h.DoctorSlots)
	return app
}

func TestSearchDoctorsParsesFilters(t *testing.T) {
	d := &fakeDirectory{}
	city := uuid.New()

	status, body := do(t, directoryApp(d, &fakeSlots{}), http.MethodGet, "/doctors?q=heart&city_id="+city.String(), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "heart", d.query.Query)
	require.NotNil(t, d.query.CityID)
	assert.Equal(t, city, *d.query.CityID)
	assert.Nil(t, d.query.SpecializationID)
	assert.Equal(t, float64(1), body["total"])

	status, _ = do(t, directoryApp(d, &fakeSlots{}), http.MethodGet, "/doctors?specialization_id=bad", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetDoctorNotFound(t *testing.T) {
	status, _ := do(t, directoryApp(&fakeDirectory{}, &fakeSlots{}), http.MethodGet, "/doctors/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDoctorSlotsErrors(t *testing.T) {
	path := "/doctors/" + uuid.NewString() + "/slots"

	status, _ := do(t, directoryApp(&fakeDirectory{}, &fakeSlots{}), http.MethodGet, path, "")
	assert.Equal(t, http.StatusBadRequest, status, "date is required")

	status, _ = do(t, directoryApp(&fakeDirectory{}, &fakeSlots{err: scheduling.ErrPastDate}), http.MethodGet, path+"?date=2020-01-01", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, directoryApp(&fakeDirectory{}, &fakeSlots{}), http.MethodGet, path+"?date=2026-03-02", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["data"])
}
