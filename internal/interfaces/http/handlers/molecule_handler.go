package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
)

// ConvertRequest asks for the canonical form of a molecule or reaction.
type ConvertRequest struct {
	SMILES    string `json:"smiles" validate:"required"`
	StripMaps bool   `json:"strip_maps"`
}

// ConvertResponse carries the converted SMILES.
type ConvertResponse struct {
	Input      string `json:"input"`
	SMILES     string `json:"smiles"`
	IsReaction bool   `json:"is_reaction"`
	StripMaps  bool   `json:"strip_maps"`
}

// CompoundsRequest names the reaction whose molecules are listed.
type CompoundsRequest struct {
	ReactionSMILES string `json:"reaction_smiles" validate:"required"`
}

// FragmentRequest selects atoms of a molecule by index.  Nil property lists
// select every property.
type FragmentRequest struct {
	SMILES         string   `json:"smiles" validate:"required"`
	AtomIndices    []int    `json:"atom_indices"`
	AtomProperties []string `json:"atom_properties"`
	BondProperties []string `json:"bond_properties"`
}

// MoleculeHandler serves the format conversion endpoints.
type MoleculeHandler struct {
	converter   *conversion.Converter
	maxBodySize int64
}

func NewMoleculeHandler(converter *conversion.Converter, maxBodySize int64) *MoleculeHandler {
	if converter == nil {
		converter = conversion.NewConverter(nil)
	}
	return &MoleculeHandler{converter: converter, maxBodySize: maxBodySize}
}

// RegisterRoutes mounts the handler under /molecules.
func (h *MoleculeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/molecules", func(mr chi.Router) {
		mr.Post("/convert", h.Convert)
		mr.Post("/compounds", h.Compounds)
		mr.Post("/fragment", h.Fragment)
	})
}

// Convert handles POST /api/v1/molecules/convert.  Map numbers are kept
// unless strip_maps is set; the output is always canonical.
func (h *MoleculeHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeAndValidate(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, r, err)
		return
	}
	input := strings.TrimSpace(req.SMILES)

	var (
		out string
		err error
	)
	if req.StripMaps {
		out, err = h.converter.RemoveMapNumbers(input)
	} else {
		out, err = h.converter.Canonicalize(input)
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, ConvertResponse{
		Input:      input,
		SMILES:     out,
		IsReaction: strings.ContainsRune(input, '>'),
		StripMaps:  req.StripMaps,
	})
}

// Compounds handles POST /api/v1/molecules/compounds.
func (h *MoleculeHandler) Compounds(w http.ResponseWriter, r *http.Request) {
	var req CompoundsRequest
	if err := decodeAndValidate(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, r, err)
		return
	}
	records, err := h.converter.ExtractCompounds(strings.TrimSpace(req.ReactionSMILES))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if records == nil {
		records = []conversion.CompoundRecord{}
	}
	writeSuccess(w, r, http.StatusOK, records)
}

// Fragment handles POST /api/v1/molecules/fragment.
func (h *MoleculeHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	var req FragmentRequest
	if err := decodeAndValidate(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, r, err)
		return
	}
	frag, err := h.converter.FragmentIdentity(strings.TrimSpace(req.SMILES), req.AtomIndices, req.AtomProperties, req.BondProperties)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, frag)
}

//Personal.AI order the ending
