package server

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"

	"devconsole/pkg/console"
	"devconsole/pkg/log"
	"devconsole/pkg/models"
	"devconsole/pkg/resource"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

//go:embed web/dashboard.html
var dashboardHTML string

var dashboardTemplate = template.Must(template.New("dashboard").Parse(dashboardHTML))

type dashboardData struct {
	Title   string
	Version string
	Started string
	System  resource.Attributes
	Memory  resource.Attributes
	Flash   resource.Attributes
	AP      *models.APConfig
	Todos   []models.Todo
}

// serveDashboard handles GET / with a server-rendered page of every
// resource. Sections whose source fails are left out.
func (srv *ConsoleServer) serveDashboard(ctx echo.Context) error {
	data := dashboardData{
		Title:   "Device console",
		Version: srv.version,
		Started: humanize.Time(srv.started),
	}

	if info, err := srv.device.System(); err == nil {
		data.System = parsed(info, console.ParseSystem)
	} else {
		log.Warn().Err(err).Msg("Dashboard without system section")
	}
	if stats, err := srv.device.Memory(); err == nil {
		data.Memory = parsed(stats, console.ParseMemory)
	} else {
		log.Warn().Err(err).Msg("Dashboard without memory section")
	}
	if stats, err := srv.device.Flash(); err == nil {
		data.Flash = parsed(stats, console.ParseFlash)
	} else {
		log.Warn().Err(err).Msg("Dashboard without flash section")
	}
	if cfg, err := srv.store.GetAPConfig(); err == nil {
		data.AP = cfg
	} else {
		log.Warn().Err(err).Msg("Dashboard without access point section")
	}
	if todos, err := srv.store.ListTodos(); err == nil {
		data.Todos = todos
	} else {
		log.Warn().Err(err).Msg("Dashboard without todos")
	}

	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(http.StatusOK)
	return dashboardTemplate.Execute(ctx.Response().Writer, data)
}

// parsed runs v through the same transform the console models apply to the
// API response.
func parsed(v interface{}, parse resource.ParseFunc) resource.Attributes {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var attrs resource.Attributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil
	}
	return parse(attrs)
}
