package account_test

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/dalemusser/resolvehub/internal/app/store/resetcodes"
	"github.com/dalemusser/resolvehub/internal/app/system/authutil"
	"github.com/dalemusser/resolvehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

// mailedCode returns the code in the latest captured email.
func (e *env) mailedCode(t *testing.T) string {
	t.Helper()
	if len(e.outbox.msgs) == 0 {
		t.Fatal("no email sent")
	}
	code := sixDigits.FindString(e.outbox.msgs[len(e.outbox.msgs)-1].TextBody)
	if code == "" {
		t.Fatal("no code in email body")
	}
	return code
}

func TestResetPassword_FullFlow(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fixtures.CreateUser(ctx, "rae", "rae@example.com")

	rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": " Rae@Example.com "}))
	rec.AssertStatus(t, http.StatusOK)
	if got := e.outbox.msgs[0].To; len(got) != 1 || got[0] != "rae@example.com" {
		t.Fatalf("email sent to %v", got)
	}
	code := e.mailedCode(t)

	rec = e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", map[string]string{
		"email":            "rae@example.com",
		"code":             code,
		"new_password":     "fresh-start-42",
		"confirm_password": "fresh-start-42",
	}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertJSONField(t, "message", "Password reset successfully")

	var doc bson.M
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&doc); err != nil {
		t.Fatalf("load user: %v", err)
	}
	hash, _ := doc["password_hash"].(string)
	if !authutil.CheckPassword("fresh-start-42", hash) {
		t.Error("new password not stored")
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/login", map[string]string{
		"email": "rae@example.com", "password": "fresh-start-42",
	}))
	rec.AssertStatus(t, http.StatusOK)

	// codes are single use
	rec = e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", map[string]string{
		"email": "rae@example.com", "code": code,
		"new_password": "another-one-99", "confirm_password": "another-one-99",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid or expired code")
}

func TestSendResetCode_UnknownEmailLooksTheSame(t *testing.T) {
	e := setup(t, nil)

	rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": "ghost@example.com"}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "If that email is registered")
	if len(e.outbox.msgs) != 0 {
		t.Errorf("email sent for unknown address: %v", e.outbox.msgs)
	}
}

func TestSendResetCode_Validation(t *testing.T) {
	e := setup(t, nil)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"malformed", "{nope", "Invalid JSON body"},
		{"missing email", map[string]string{}, "Email is required"},
		{"bad email", map[string]string{"email": "nope@local"}, "Invalid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestSendResetCode_TooManyRequests(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateUser(ctx, "sam", "sam@example.com")

	for i := 0; i < resetcodes.MaxSends; i++ {
		rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": "sam@example.com"}))
		rec.AssertStatus(t, http.StatusOK)
	}
	rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": "sam@example.com"}))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestVerifyResetCode_Validation(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateUser(ctx, "val", "val@example.com")

	rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": "val@example.com"}))
	rec.AssertStatus(t, http.StatusOK)
	code := e.mailedCode(t)
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	tests := []struct {
		name string
		body any
		want string
	}{
		{"malformed", "{nope", "Invalid JSON body"},
		{"missing code", map[string]string{"email": "val@example.com", "new_password": "abcdefg1", "confirm_password": "abcdefg1"}, "verification code are required"},
		{"empty passwords", map[string]string{"email": "val@example.com", "code": code}, "Password fields cannot be empty"},
		{"mismatch", map[string]string{"email": "val@example.com", "code": code, "new_password": "abcdefg1", "confirm_password": "abcdefg2"}, "Passwords do not match"},
		{"weak", map[string]string{"email": "val@example.com", "code": code, "new_password": "abc", "confirm_password": "abc"}, "Password"},
		{"wrong code", map[string]string{"email": "val@example.com", "code": wrong, "new_password": "abcdefg1", "confirm_password": "abcdefg1"}, "Invalid or expired code"},
		{"unknown email", map[string]string{"email": "nobody@example.com", "code": code, "new_password": "abcdefg1", "confirm_password": "abcdefg1"}, "Invalid or expired code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.want)
		})
	}

	// the earlier wrong guess did not burn the real code
	rec = e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", map[string]string{
		"email": "val@example.com", "code": code, "new_password": "abcdefg1", "confirm_password": "abcdefg1",
	}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestVerifyResetCode_TooManyAttempts(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateUser(ctx, "gus", "gus@example.com")

	rec := e.do(testutil.NewJSONRequest("POST", "/send-reset-code", map[string]string{"email": "gus@example.com"}))
	rec.AssertStatus(t, http.StatusOK)
	code := e.mailedCode(t)
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	body := map[string]string{"email": "gus@example.com", "code": wrong, "new_password": "abcdefg1", "confirm_password": "abcdefg1"}
	for i := 0; i < resetcodes.MaxVerifyAttempts; i++ {
		e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", body)).AssertStatus(t, http.StatusBadRequest)
	}
	body["code"] = code
	rec = e.do(testutil.NewJSONRequest("POST", "/verify-reset-code", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}
