package view

const systemTemplate = `System
  platform    {{show .platform}}
  system      {{show .system}}
  machine id  {{show .machine_id}}
  frequency   {{show .machine_freq}}
{{- with .uptime}}
  uptime      {{.}}
{{- end}}
`

const memoryTemplate = `Memory
  capacity    {{show .capacity}}
  allocated   {{show .mem_alloc}}
  free        {{show .mem_free}}
  usage       {{show .usage}}%
`

const flashTemplate = `Flash
  id          {{show .flash_id}}
  size        {{show .flash_size}}
  capacity    {{show .capacity}}
  used        {{show .used}}
  free        {{show .free}}
  usage       {{show .usage}}%
`

const networkTemplate = `Network
  phy mode    {{show .phy_mode}}
  station     {{show .sta_state}}
  ap          {{show .ap_state}}
`

const apConfigTemplate = `Access point
  essid       {{show .essid}}
  channel     {{show .channel}}
  hidden      {{yesno .hidden}}
  authmode    {{show .authmode}}
  mac         {{show .mac}}
`

const apFormTemplate = `Edit access point
  essid     [{{show .essid}}]
  channel   [{{show .channel}}]
  hidden    [{{if .hidden}}x{{else}} {{end}}]
  authmode  < {{show .authmode}} >
  mac        {{show .mac}} (read-only)
`

const todoItemTemplate = `[{{if .completed}}x{{else}} {{end}}] {{show .title}}
`

const todoListTemplate = `Todos ({{.remaining}} of {{len .items}} left)
{{- range .items}}
  [{{if .completed}}x{{else}} {{end}}] {{show .title}}
{{- else}}
  nothing to do
{{- end}}
`
