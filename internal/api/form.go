package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/domain"
)

// appointmentForm reads the booking fields shared by the doctor and patient
// forms. The end time is always start + one hour.
func appointmentForm(r *http.Request) (apiclient.AppointmentInput, error) {
	in := apiclient.AppointmentInput{
		PatientName:     strings.TrimSpace(r.PostFormValue("patientName")),
		DoctorName:      strings.TrimSpace(r.PostFormValue("doctorName")),
		AppointmentDate: strings.TrimSpace(r.PostFormValue("appointmentDate")),
		AppointmentTime: strings.TrimSpace(r.PostFormValue("appointmentTime")),
		Gender:          strings.TrimSpace(r.PostFormValue("gender")),
		PhoneNumber:     strings.TrimSpace(r.PostFormValue("phoneNumber")),
		Address:         strings.TrimSpace(r.PostFormValue("address")),
		Status:          domain.AppointmentStatus(strings.TrimSpace(r.PostFormValue("status"))),
	}

	if in.AppointmentDate == "" || in.AppointmentTime == "" {
		return in, validationError{"Date and time are required"}
	}
	end, err := domain.EndTime(in.AppointmentDate, in.AppointmentTime)
	if err != nil {
		return in, validationError{"Invalid date or time"}
	}
	in.EndTime = end

	if raw := strings.TrimSpace(r.PostFormValue("age")); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 || age > 150 {
			return in, validationError{"Age must be a number"}
		}
		in.Age = age
	}

	if in.Status == "" {
		in.Status = domain.StatusBooked
	}
	if !in.Status.Valid() {
		return in, validationError{"Unknown status " + strconv.Quote(string(in.Status))}
	}
	return in, nil
}
