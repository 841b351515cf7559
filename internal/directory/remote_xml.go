package directory

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"
)

// OCS status codes shared by every provisioning endpoint.
const (
	ocsCodeOKv1         = 100
	ocsCodeOKv2         = 200
	ocsCodeServerError  = 996
	ocsCodeUnauthorized = 997
	ocsCodeNotFound     = 998
)

// ocsResponse is the provisioning API envelope:
// <ocs><meta>...</meta><data>...</data></ocs>
type ocsResponse struct {
	XMLName xml.Name `xml:"ocs"`
	Meta    ocsMeta  `xml:"meta"`
	Data    ocsData  `xml:"data"`
}

type ocsMeta struct {
	Status     string `xml:"status"`
	StatusCode int    `xml:"statuscode"`
	Message    string `xml:"message"`
}

// ocsData covers the payloads of every endpoint the backend calls.
type ocsData struct {
	ID          string   `xml:"id"`
	Enabled     *string  `xml:"enabled"`
	Email       string   `xml:"email"`
	DisplayName string   `xml:"displayname"`
	Groups      []string `xml:"groups>element"`
	Users       []string `xml:"users>element"`
}

func (r *ocsResponse) ok() bool {
	return r.Meta.StatusCode == ocsCodeOKv1 || r.Meta.StatusCode == ocsCodeOKv2
}

// codeMap maps OCS status codes of one endpoint onto failure kinds.
type codeMap map[int]error

// failure converts a non-ok envelope into a failure kind. Codes absent from
// m are reported as ErrBackendUnavailable.
func (r *ocsResponse) failure(m codeMap) error {
	if r.ok() {
		return nil
	}
	if kind, found := m[r.Meta.StatusCode]; found {
		return fmt.Errorf("%w: ocs status %d %s", kind, r.Meta.StatusCode, r.Meta.Message)
	}
	return fmt.Errorf(
		"%w: ocs status %d %s",
		core.ErrBackendUnavailable,
		r.Meta.StatusCode,
		r.Meta.Message,
	)
}

func (d *ocsData) toUser(username string) *models.User {
	id := d.ID
	if id == "" {
		id = username
	}
	return &models.User{
		Username:    id,
		Enabled:     d.Enabled == nil || parseOCSBool(*d.Enabled),
		DisplayName: d.DisplayName,
		Email:       d.Email,
		Groups:      models.NormalizeGroups(d.Groups),
	}
}

// parseOCSBool reads a boolean element. Servers render false as an empty
// element, so only "1" and "true" count as set.
func parseOCSBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

const propfindBody = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:displayname/>
    <d:getlastmodified/>
    <d:getcontenttype/>
    <d:getetag/>
    <d:resourcetype/>
  </d:prop>
</d:propfind>`

type davMultistatus struct {
	XMLName   xml.Name      `xml:"DAV: multistatus"`
	Responses []davResponse `xml:"DAV: response"`
}

type davResponse struct {
	Href      string        `xml:"DAV: href"`
	Propstats []davPropstat `xml:"DAV: propstat"`
}

type davPropstat struct {
	Prop   davProp `xml:"DAV: prop"`
	Status string  `xml:"DAV: status"`
}

type davProp struct {
	DisplayName  string          `xml:"DAV: displayname"`
	LastModified string          `xml:"DAV: getlastmodified"`
	ContentType  string          `xml:"DAV: getcontenttype"`
	ETag         string          `xml:"DAV: getetag"`
	ResourceType davResourceType `xml:"DAV: resourcetype"`
}

type davResourceType struct {
	Collection *struct{} `xml:"DAV: collection"`
}

// okProp returns the properties reported with a 200 status.
func (r *davResponse) okProp() (davProp, bool) {
	for _, ps := range r.Propstats {
		if strings.Contains(ps.Status, " 200 ") {
			return ps.Prop, true
		}
	}
	return davProp{}, false
}

// toResource converts a multistatus entry. rel is the href relative to the
// user's root.
func (p davProp) toResource(rel string) models.Resource {
	res := models.Resource{
		Href:      rel,
		Name:      p.DisplayName,
		MediaType: p.ContentType,
		ETag:      strings.Trim(p.ETag, `"`),
	}
	if res.Name == "" {
		res.Name = path.Base(strings.TrimSuffix(rel, "/"))
	}
	if p.ResourceType.Collection != nil {
		res.MediaType = models.MediaTypeDirectory
	}
	if t, err := http.ParseTime(p.LastModified); err == nil {
		res.LastModified = t.UTC()
	}
	return res
}
