package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"barbershop-booking/internal/rpc"
)

const maxBody = 64 << 10

func (s *server) availability(w http.ResponseWriter, r *http.Request) {
	resp, err := s.h.GetAvailability(r.Context(), &rpc.AvailabilityRequest{Date: r.URL.Query().Get("date")})
	reply(w, http.StatusOK, resp, err)
}

func (s *server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req rpc.BookingRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.h.CreateBooking(r.Context(), &req)
	reply(w, http.StatusCreated, resp, err)
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req rpc.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.h.Register(r.Context(), &req)
	reply(w, http.StatusCreated, resp, err)
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req rpc.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.h.Login(r.Context(), &req)
	reply(w, http.StatusOK, resp, err)
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	var req rpc.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.h.Refresh(r.Context(), &req)
	reply(w, http.StatusOK, resp, err)
}

func (s *server) session(w http.ResponseWriter, r *http.Request) {
	resp, err := s.h.GetSession(r.Context(), &emptypb.Empty{})
	reply(w, http.StatusOK, resp, err)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	_, err := s.h.SignOut(r.Context(), &emptypb.Empty{})
	reply(w, http.StatusNoContent, nil, err)
}

func (s *server) listAppointments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.h.ListAppointments(r.Context(), &rpc.ListRequest{Status: r.URL.Query().Get("status")})
	reply(w, http.StatusOK, resp, err)
}

func (s *server) completeAppointment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.h.CompleteAppointment(r.Context(), &rpc.IDRequest{ID: chi.URLParam(r, "id")})
	reply(w, http.StatusOK, resp, err)
}

func (s *server) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	_, err := s.h.DeleteAppointment(r.Context(), &rpc.IDRequest{ID: chi.URLParam(r, "id")})
	reply(w, http.StatusNoContent, nil, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// reply writes resp with okStatus, or the HTTP form of a handler error.
func reply(w http.ResponseWriter, okStatus int, resp any, err error) {
	if err != nil {
		st := status.Convert(err)
		writeError(w, httpStatus(st.Code()), st.Message())
		return
	}
	if okStatus == http.StatusNoContent {
		w.WriteHeader(okStatus)
		return
	}
	writeJSON(w, okStatus, resp)
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
