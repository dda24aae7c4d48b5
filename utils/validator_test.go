package utils

import "testing"

type sampleRegistration struct {
	Name     string `validate:"required,nameok"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,pwdmin"`
	Timezone string `validate:"tz"`
}

func TestValidateStruct_OK(t *testing.T) {
	s := sampleRegistration{
		Name:     "Jamie O'Neil",
		Email:    "jamie@example.com",
		Password: "hunter2hunter2",
		Timezone: "Pacific/Auckland",
	}
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

func TestValidateStruct_Required(t *testing.T) {
	s := sampleRegistration{Email: "a@b.co", Password: "longenough"}
	if err := ValidateStruct(&s); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestValidateStruct_Email(t *testing.T) {
	s := sampleRegistration{Name: "Sam", Email: "not-an-email", Password: "longenough"}
	if err := ValidateStruct(&s); err == nil {
		t.Fatal("expected error for bad email")
	}
}

func TestValidateStruct_PasswordTooShort(t *testing.T) {
	s := sampleRegistration{Name: "Sam", Email: "a@b.co", Password: "short"}
	if err := ValidateStruct(&s); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestValidateStruct_Timezone(t *testing.T) {
	s := sampleRegistration{Name: "Sam", Email: "a@b.co", Password: "longenough", Timezone: "not a tz!!"}
	if err := ValidateStruct(&s); err == nil {
		t.Fatal("expected error for malformed timezone")
	}
	s.Timezone = ""
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("empty timezone is allowed, got %v", err)
	}
}
