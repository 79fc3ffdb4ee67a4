package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "Admin", want: RoleAdmin},
		{in: "doctor", want: RoleDoctor},
		{in: " Patient ", want: RolePatient},
		{in: "Nurse", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role Role
		req  Requirement
		want bool
	}{
		{RoleAdmin, RequireDoctor, true},
		{RoleDoctor, RequireDoctor, true},
		{RolePatient, RequireDoctor, false},
		{RolePatient, RequirePatient, true},
		{RoleDoctor, RequirePatient, false},
		{RoleAdmin, RequirePatient, false},
		{RolePatient, RequireAny, true},
		{RoleNone, RequireAny, false},
		{RoleNone, RequireDoctor, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Satisfies(tt.req), "%v satisfies %v", tt.role, tt.req)
	}
}

func TestRoleHomePath(t *testing.T) {
	assert.Equal(t, DoctorHomePath, RoleAdmin.HomePath())
	assert.Equal(t, DoctorHomePath, RoleDoctor.HomePath())
	assert.Equal(t, PatientHomePath, RolePatient.HomePath())
	assert.Equal(t, LoginPath, RoleNone.HomePath())
}

func TestUserJSONRole(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"id":"u1","firstName":"Ada","role":"Doctor"}`), &u)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, u.Role)

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"role":"Doctor"`)

	err = json.Unmarshal([]byte(`{"id":"u1","role":"Janitor"}`), &u)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&User{Username: "ada", Email: "a@x"}).DisplayName())
	assert.Equal(t, "a@x", (&User{Email: "a@x"}).DisplayName())
}

func TestEndTime(t *testing.T) {
	got, err := EndTime("2025-03-01", "09:30")
	require.NoError(t, err)
	assert.Equal(t, "10:30", got)

	got, err = EndTime("2025-03-01", "23:30")
	require.NoError(t, err)
	assert.Equal(t, "00:30", got)

	_, err = EndTime("2025-03-01", "9am")
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	var snap Snapshot
	assert.False(t, snap.IsAuthenticated())
	assert.Equal(t, RoleNone, snap.Role())

	snap.Token = "tok"
	assert.False(t, snap.IsAuthenticated(), "token without user is not a session")

	snap.User = &User{ID: "u1", Role: RolePatient}
	assert.True(t, snap.IsAuthenticated())
	assert.True(t, snap.HasRole(RequirePatient))
	assert.False(t, snap.HasRole(RequireDoctor))

	snap.IsLoading = true
	assert.False(t, snap.IsAuthenticated())
}

func TestAppointmentStatusValid(t *testing.T) {
	assert.True(t, StatusApproved.Valid())
	assert.False(t, AppointmentStatus("Lost").Valid())
}
