// Package docs PenaCMS API documentation
package docs

// Swagger documentation info
// @title PenaCMS API
// @version 1.0
// @description Content management backend - authentication, sessions, articles and taxonomy
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@penacms.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @tag.name auth
// @tag.description Registration, login and token lifecycle
// @tag.name sessions
// @tag.description Multi-device session management
// @tag.name admin
// @tag.description Administrative session overviews
// @tag.name profile
// @tag.description User profile management
// @tag.name roles
// @tag.description Role management
// @tag.name articles
// @tag.description Article authoring and moderation
// @tag.name taxonomy
// @tag.description Categories, tags and languages
// @tag.name uploads
// @tag.description File uploads backed by object storage
