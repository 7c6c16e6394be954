package dto

// RegisterRequest carries the multipart registration fields. The validator
// tags are the single source of truth for which fields are required versus
// optional; age/date-of-birth at-least-one is enforced in the service.
type RegisterRequest struct {
	FullName    string `form:"name" json:"name" validate:"required"`
	Nickname    string `form:"nickname" json:"nickname" validate:"required"`
	FatherName  string `form:"father_name" json:"father_name"`
	Email       string `form:"email" json:"email" validate:"omitempty,email"`
	Phone       string `form:"phone" json:"phone" validate:"required"`
	Whatsapp    string `form:"whatsapp" json:"whatsapp"`
	Age         int    `form:"age" json:"age" validate:"omitempty,min=10,max=100"`
	DateOfBirth string `form:"dob" json:"dob" validate:"omitempty,datetime=2006-01-02"`
	BloodGroup  string `form:"blood_group" json:"blood_group" validate:"required"`
	Address     string `form:"address" json:"address" validate:"required"`
}

// EditMemberRequest is the administrator patch of the whitelisted demographic
// fields. Status, membership identifier, and attachment references are not
// editable through this payload.
type EditMemberRequest struct {
	FullName    *string `json:"name" validate:"omitempty,min=1"`
	Nickname    *string `json:"nickname" validate:"omitempty,min=1"`
	FatherName  *string `json:"father_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	Whatsapp    *string `json:"whatsapp"`
	Age         *int    `json:"age" validate:"omitempty,min=10,max=100"`
	DateOfBirth *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	BloodGroup  *string `json:"blood_group"`
	Address     *string `json:"address" validate:"omitempty,min=1"`
}

// FileUpload is an in-memory attachment handed from the HTTP layer to the
// member service.
type FileUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}
