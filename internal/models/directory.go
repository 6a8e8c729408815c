// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

// EntryKind discriminates directory entries.
type EntryKind string

const (
	EntryKindUser   EntryKind = "user"
	EntryKindSite   EntryKind = "site"
	EntryKindZone   EntryKind = "zone"
	EntryKindCamera EntryKind = "camera"
)

// DirectoryEntry is a tagged variant over the directory entity kinds.
// Each concrete type carries only the fields that belong to its kind;
// callers switch on Kind() or use a type switch.
type DirectoryEntry interface {
	Kind() EntryKind
	EntryID() string
}

// User is a reviewer known to the identity provider.
type User struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=viewer reviewer investigator admin"`
}

// Site is a monitored facility.
type Site struct {
	ID   string `json:"id" koanf:"id" validate:"required"`
	Name string `json:"name" koanf:"name" validate:"required,max=100"`
}

// Zone is an area within a site.
type Zone struct {
	ID     string `json:"id" koanf:"id" validate:"required"`
	Name   string `json:"name" koanf:"name" validate:"required,max=100"`
	SiteID string `json:"site_id" koanf:"site_id" validate:"required"`
}

// Camera is a capture device within a zone.
type Camera struct {
	ID     string `json:"id" koanf:"id" validate:"required"`
	Name   string `json:"name" koanf:"name" validate:"required,max=100"`
	ZoneID string `json:"zone_id" koanf:"zone_id" validate:"required"`
}

func (User) Kind() EntryKind { return EntryKindUser }
func (Site) Kind() EntryKind { return EntryKindSite }
func (Zone) Kind() EntryKind { return EntryKindZone }
func (Camera) Kind() EntryKind { return EntryKindCamera }

func (u User) EntryID() string { return u.ID }
func (s Site) EntryID() string { return s.ID }
func (z Zone) EntryID() string { return z.ID }
func (c Camera) EntryID() string { return c.ID }

// Directory is the site/zone/camera catalog supplied by the directory
// service. It is read-only here.
type Directory struct {
	Sites   []Site   `json:"sites" koanf:"sites"`
	Zones   []Zone   `json:"zones" koanf:"zones"`
	Cameras []Camera `json:"cameras" koanf:"cameras"`
}

// Site looks up a site by id.
func (d *Directory) Site(id string) (Site, bool) {
	for _, s := range d.Sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// Zone looks up a zone by id.
func (d *Directory) Zone(id string) (Zone, bool) {
	for _, z := range d.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// Camera looks up a camera by id.
func (d *Directory) Camera(id string) (Camera, bool) {
	for _, c := range d.Cameras {
		if c.ID == id {
			return c, true
		}
	}
	return Camera{}, false
}

// Entries returns every directory entry as a tagged variant.
func (d *Directory) Entries() []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(d.Sites)+len(d.Zones)+len(d.Cameras))
	for _, s := range d.Sites {
		out = append(out, s)
	}
	for _, z := range d.Zones {
		out = append(out, z)
	}
	for _, c := range d.Cameras {
		out = append(out, c)
	}
	return out
}

// ValidZones returns the zones selectable for siteID, preserving order.
// An empty siteID places no constraint and returns every zone.
func ValidZones(siteID string, zones []Zone) []Zone {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if siteID == "" || z.SiteID == siteID {
			out = append(out, z)
		}
	}
	return out
}

// ValidCameras returns the cameras selectable under the given site and zone
// selections. Empty selections place no constraint.
func ValidCameras(siteID, zoneID string, zones []Zone, cameras []Camera) []Camera {
	allowed := make(map[string]bool)
	for _, z := range ValidZones(siteID, zones) {
		if zoneID == "" || z.ID == zoneID {
			allowed[z.ID] = true
		}
	}
	out := make([]Camera, 0, len(cameras))
	for _, c := range cameras {
		if allowed[c.ZoneID] {
			out = append(out, c)
		}
	}
	return out
}
