package models

import (
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/entity/field"
)

var UserSchema = entity.NewSchema("user").
	Field("login", field.NewString(
		field.Required(),
		field.Description("Login"),
		field.Validators(field.LoginValidator, field.LengthValidator(1, 100)),
	)).
	Field("name", field.NewString(field.Description("First name"), field.Validators(field.LengthValidator(0, 100)))).
	Field("surname", field.NewString(field.Description("Last name"), field.Validators(field.LengthValidator(0, 100)))).
	Field("email", field.NewString(field.Description("E-mail"), field.Validators(field.EmailValidator))).
	Field("is_staff", field.NewReadOnly(field.NewBoolean(), field.Description("Staff"))).
	Field("date_joined", field.NewReadOnly(field.NewString(), field.Description("Joined at"))).
	MustBuild()

var GroupSchema = entity.NewSchema("group").
	Field("name", field.NewString(
		field.Required(),
		field.Description("Name"),
		field.Validators(field.LengthValidator(1, 256)),
	)).
	Field("description", field.NewString(field.Description("Description"))).
	Field("governor", field.NewRelated("user", field.Description("Governor"))).
	MustBuild()

var ProjectSchema = entity.NewSchema("project").
	Field("alias", field.NewString(
		field.Required(),
		field.Description("Alias"),
		field.Validators(field.SlugValidator, field.LengthValidator(1, 64)),
	)).
	Field("name", field.NewString(field.Description("Name"), field.Validators(field.LengthValidator(0, 256)))).
	Field("description", field.NewString(field.Description("Description"))).
	Field("group", field.NewRelated("group", field.Required(), field.Description("Group"))).
	MustBuild()

var ProjectDataSchema = entity.NewSchema("data").
	Field("name", field.NewString(
		field.Required(),
		field.Description("Name"),
		field.Validators(field.LengthValidator(1, 256)),
	)).
	Field("type", field.NewString(field.Description("Type"))).
	Field("file", field.NewFile(field.Description("File"))).
	Field("size", field.NewReadOnly(field.NewInteger(), field.Description("Size"))).
	Field("uploaded_at", field.NewReadOnly(field.NewString(), field.Description("Uploaded at"))).
	Field("project", field.NewReadOnly(field.NewRelated("project"), field.Description("Project"))).
	MustBuild()

var LogEntrySchema = entity.NewSchema("log").
	Field("request_date", field.NewReadOnly(field.NewString(), field.Description("Requested at"))).
	Field("request_method", field.NewReadOnly(field.NewString(), field.Description("Method"))).
	Field("path", field.NewReadOnly(field.NewString(), field.Description("Path"))).
	Field("status_code", field.NewReadOnly(field.NewInteger(), field.Description("Status"))).
	Field("response_time", field.NewReadOnly(field.NewDuration(), field.Description("Response time"))).
	Field("user", field.NewReadOnly(field.NewRelated("user"), field.Description("User"))).
	MustBuild()

var ModuleSchema = entity.NewSchema("module").
	Field("alias", field.NewReadOnly(field.NewString(), field.Description("Alias"))).
	Field("name", field.NewString(field.Required(), field.Description("Name"))).
	Field("is_enabled", field.NewBoolean(field.Description("Enabled"))).
	Field("app_class", field.NewReadOnly(field.NewString(), field.Description("Application"))).
	Field("settings", field.NewObject(field.Description("Settings"))).
	MustBuild()
