package model

// UserProfile is the users table row written once at signup. Credentials
// never touch this table, the identity provider owns them.
type UserProfile struct {
	Username    string `dynamodbav:"username" json:"username"`
	Email       string `dynamodbav:"email" json:"email"`
	FirstName   string `dynamodbav:"first_name" json:"first_name"`
	LastName    string `dynamodbav:"last_name" json:"last_name"`
	PhoneNumber string `dynamodbav:"phone_number" json:"phone_number"`
	Birthdate   string `dynamodbav:"birthdate" json:"birthdate"`
}

type UserSignup struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Birthdate   string `json:"birthdate"`
}

type UserVerify struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

type UserSignin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
